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
	goerrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synccore/pkg/codec"
	"synccore/pkg/proto"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func capture(t *testing.T) []byte {
	var call, rep, fault bytes.Buffer
	require.NoError(t, codec.EncodeCall(&call, "contacts/getchanges", int64(3)))
	require.NoError(t, codec.EncodeReply(&rep, map[string]any{"ok": true}))
	require.NoError(t, codec.EncodeFault(&fault, "no session"))
	var push bytes.Buffer
	require.NoError(t, codec.NewEncoder(&push).Encode(map[string]any{"type": "cc"}))
	compressed, err := proto.BuildCompressed(proto.MsgInternalResponse, 4, rep.Bytes(), proto.SnappyCompression)
	require.NoError(t, err)

	var stream bytes.Buffer
	stream.Write(proto.Build(proto.MsgInternalRequest, 1, call.Bytes()))
	stream.Write(proto.Build(proto.MsgInternalResponse, 1, rep.Bytes()))
	stream.Write(proto.Build(proto.MsgInternalResponse, 2, fault.Bytes()))
	stream.Write(proto.Build(proto.MsgInternalResponse, 3, []byte{'r', 1, 0, 0x99}))
	stream.Write(proto.Build(proto.MsgPush, 0, push.Bytes()))
	stream.Write(proto.Build(proto.MsgExternalResponse, 5, []byte("<html/>")))
	stream.Write(compressed)
	stream.Write(proto.Build(proto.MsgHeartbeat, 0, nil))
	return stream.Bytes()
}

func TestPrintFrames(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printFrames(&out, bytes.NewReader(capture(t)), false))
	assert.Contains(t, out.String(), "0: type=InternalRequest id=1")
	assert.Contains(t, out.String(), "6: type=InternalResponse id=4")
	assert.Contains(t, out.String(), "compressed=true")
	assert.Contains(t, out.String(), "8 frames\n")
}

func TestPrintFramesStopsAtBadHeader(t *testing.T) {
	stream := append(proto.Build(proto.MsgHeartbeat, 0, nil), 0x00, 0x01, 0x02)
	var out bytes.Buffer
	err := printFrames(&out, bytes.NewReader(stream), true)
	assert.True(t, goerrors.Is(err, proto.ErrShortHeader), "got %v", err)
	assert.Contains(t, out.String(), "1 frames\n")
}

func TestDecodeFrames(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, decodeFrames(&out, bytes.NewReader(capture(t)), proto.SnappyCompression))
	s := out.String()
	assert.Contains(t, s, "   call contacts/getchanges [3]\n")
	assert.Contains(t, s, "   [0] map[ok:true]\n")
	assert.Contains(t, s, "   error: fault: no session\n")
	assert.Contains(t, s, "   error: codec: unrecognized tag")
	assert.Contains(t, s, "   [0] map[type:cc]\n")
	assert.Contains(t, s, "   7 opaque bytes\n")
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("map[ok:true]")))
}

func TestDecodeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, capture(t), 0o644))

	out, err := execute(t, "decode", "--compression", "snappy", path)
	require.NoError(t, err)
	assert.Contains(t, out, "call contacts/getchanges")

	_, err = execute(t, "decode", "--compression", "lz4", path)
	assert.Error(t, err)

	_, err = execute(t, "decode", "--compression", "zlib", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFramesCommandHex(t *testing.T) {
	raw := hex.EncodeToString(proto.Build(proto.MsgConnectionTest, 42, nil))
	out, err := execute(t, "frames", "--hex", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "type=ConnectionTest id=42")

	_, err = execute(t, "frames", "--hex", "zz")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "[Transport]")
	assert.Contains(t, out, `HeartbeatInterval = "30s"`)

	path := filepath.Join(t.TempDir(), "client.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Auth]\nURL = \"http://h/sync\"\n[Transport]\nAddr = \"h:9000\"\n"), 0o644))
	out, err = execute(t, "config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Addr = "h:9000"`)

	require.NoError(t, os.WriteFile(path, []byte("[Transport]\nAddr = \"h:9000\"\n"), 0o644))
	_, err = execute(t, "config", path)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go Version")
}
