//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package cmd

import (
	"github.com/spf13/cobra"

	"synccore/pkg/client"
)

var configCmd = &cobra.Command{
	Use:   "config [file]",
	Short: "Print the effective client configuration",
	Long: `Load a TOML client configuration, apply defaults, validate it and
print the result. Without a file the defaults are printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var conf *client.Config
		if len(args) == 0 {
			conf = &client.Config{}
			conf.SetDefaultIfNotDefined()
		} else {
			var err error
			if conf, err = client.LoadConfig(args[0]); err != nil {
				return err
			}
		}
		return conf.Dump(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
