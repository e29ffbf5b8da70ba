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
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"synccore/pkg/proto"
)

var framesCmd = &cobra.Command{
	Use:   "frames <file>",
	Short: "List the frames of a captured stream",
	Long: `Split a captured stream into frames and print each header.

Example:
  synccli frames capture.bin
  synccli frames --hex ffff030000002a00000000000000000000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()
		dump, _ := cmd.Flags().GetBool("dump")
		return printFrames(cmd.OutOrStdout(), in, dump)
	},
}

func init() {
	framesCmd.Flags().Bool("dump", false, "hex dump each payload")
	rootCmd.AddCommand(framesCmd)
}

// printFrames writes one line per frame. A malformed header ends the stream
// and is returned after the frames before it are printed.
func printFrames(w io.Writer, r io.Reader, dump bool) error {
	s := proto.NewSplitter(r)
	n := 0
	for s.Next() {
		f := s.Frame()
		fmt.Fprintf(w, "%d: %s\n", n, f.String())
		if dump && len(f.Payload) != 0 {
			fmt.Fprint(w, hex.Dump(f.Payload))
		}
		n++
	}
	fmt.Fprintf(w, "%d frames\n", n)
	if err := s.Err(); err != nil {
		return fmt.Errorf("frame %d: %w", n, err)
	}
	return nil
}
