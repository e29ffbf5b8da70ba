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

package proto

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// header is the fixed 16 byte frame header.
//
//	[0:2)   sync marker
//	[2]     message type
//	[3:7)   correlation id
//	[7:11)  reserved
//	[11:15) payload length
//	[15]    compression flag
type header struct {
	msgType       MessageType
	correlationId int32
	payloadLength int32
	compressed    bool
}

func (h *header) encode(raw []byte) {
	copy(raw[0:2], SyncMarker[:])
	raw[kOffsetType] = byte(h.msgType)
	binary.BigEndian.PutUint32(raw[kOffsetCorrelation:kOffsetReserved], uint32(h.correlationId))
	binary.BigEndian.PutUint32(raw[kOffsetReserved:kOffsetLength], 0)
	binary.BigEndian.PutUint32(raw[kOffsetLength:kOffsetCompression], uint32(h.payloadLength))
	if h.compressed {
		raw[kOffsetCompression] = 1
	} else {
		raw[kOffsetCompression] = 0
	}
}

func (h *header) decode(raw []byte, maxPayload int) error {
	if len(raw) < HeaderSize {
		return ErrShortHeader
	}
	if !bytes.Equal(raw[0:2], SyncMarker[:]) {
		return fmt.Errorf("%w: % x", ErrBadSyncMarker, raw[0:2])
	}
	h.msgType = MessageType(raw[kOffsetType])
	if !h.msgType.IsValid() {
		return fmt.Errorf("%w: %d", ErrUnknownType, raw[kOffsetType])
	}
	h.correlationId = int32(binary.BigEndian.Uint32(raw[kOffsetCorrelation:kOffsetReserved]))
	h.payloadLength = int32(binary.BigEndian.Uint32(raw[kOffsetLength:kOffsetCompression]))
	if h.payloadLength < 0 || int(h.payloadLength) > maxPayload {
		return fmt.Errorf("%w: %d", ErrBadLength, h.payloadLength)
	}
	switch raw[kOffsetCompression] {
	case 0:
		h.compressed = false
	case 1:
		h.compressed = true
	default:
		return fmt.Errorf("%w: %d", ErrBadCompressionFlag, raw[kOffsetCompression])
	}
	return nil
}
