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
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synccli",
	Short: "Inspect sync transport captures and configuration",
	Long: `synccli splits captured frame streams, decodes their payloads and
prints the effective client configuration.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		glog.Flush()
	},
}

// Execute runs the root command; it is called once by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("hex", false, "treat the argument as a hex string instead of a file name")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// openInput returns the capture named by args[0], or the hex bytes it
// spells when --hex is set.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	asHex, _ := cmd.Flags().GetBool("hex")
	if asHex {
		b, err := hex.DecodeString(strings.Join(strings.Fields(args[0]), ""))
		if err != nil {
			return nil, fmt.Errorf("bad hex input: %w", err)
		}
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	return os.Open(args[0])
}
