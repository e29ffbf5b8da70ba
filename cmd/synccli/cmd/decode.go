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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"synccore/pkg/codec"
	"synccore/pkg/proto"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode the payloads of a captured stream",
	Long: `Split a captured stream into frames and decode each payload.

Requests print their method and arguments, responses and pushes their
values. A payload that fails to decode is reported and the next frame is
processed.

Example:
  synccli decode --compression snappy capture.bin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("compression")
		c, err := proto.ParseCompression(name)
		if err != nil {
			return err
		}
		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()
		return decodeFrames(cmd.OutOrStdout(), in, c)
	},
}

func init() {
	decodeCmd.Flags().String("compression", string(proto.ZlibCompression), "codec of compressed payloads (zlib or snappy)")
	rootCmd.AddCommand(decodeCmd)
}

func decodeFrames(w io.Writer, r io.Reader, c proto.Compression) error {
	s := proto.NewSplitter(r)
	n := 0
	for s.Next() {
		f := s.Frame()
		fmt.Fprintf(w, "%d: %s\n", n, f.String())
		if err := decodePayload(w, f, c); err != nil {
			fmt.Fprintf(w, "   error: %s\n", err)
		}
		n++
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("frame %d: %w", n, err)
	}
	return nil
}

func decodePayload(w io.Writer, f proto.Frame, c proto.Compression) error {
	payload := f.Payload
	if f.Compressed {
		var err error
		if payload, err = proto.Decompress(payload, c, proto.DefaultMaxPayloadSize); err != nil {
			return err
		}
	}
	if len(payload) == 0 {
		return nil
	}
	switch f.Type {
	case proto.MsgInternalRequest, proto.MsgGetPresence:
		method, args, err := codec.NewDecoder(bytes.NewReader(payload)).DecodeCall()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "   call %s %v\n", method, args)
	case proto.MsgExternalRequest, proto.MsgExternalResponse:
		fmt.Fprintf(w, "   %d opaque bytes\n", len(payload))
	default:
		d := codec.NewDecoder(bytes.NewReader(payload))
		var values []any
		var err error
		if payload[0] == codec.TagReply || payload[0] == codec.TagFault {
			values, err = d.DecodeReply()
		} else {
			var v any
			v, err = d.Decode()
			values = []any{v}
		}
		if err != nil {
			return err
		}
		for i, v := range values {
			fmt.Fprintf(w, "   [%d] %v\n", i, v)
		}
	}
	return nil
}
