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

// Package codec implements the tagged binary object serialization used on
// the wire.
//
// Each value is introduced by a one byte tag:
//
//	N            null
//	T / F        boolean true / false
//	I  b32       32 bit signed integer, big endian
//	L  b64       64 bit signed integer, big endian
//	D  b64       IEEE 754 double
//	d  b64       date, milliseconds since the epoch
//	S  b16 utf   string; the length counts UTF-16 code units
//	s  b16 utf   non-final string chunk
//	X  b16 utf   xml string, read as a plain string
//	x  b16 utf   non-final xml chunk
//	B  b16 data  byte array
//	b  b16 data  non-final byte array chunk
//	V [t b16 type] [l b32] value* z      list
//	M [t b16 type] (key value)* z        string keyed map
//	r b8 b8 value* z                     reply envelope
//	f value* z                           fault
//	c b8 b8 m b16 method value* z        call envelope
package codec

const (
	TagNull        byte = 'N'
	TagTrue        byte = 'T'
	TagFalse       byte = 'F'
	TagInt         byte = 'I'
	TagLong        byte = 'L'
	TagDouble      byte = 'D'
	TagDate        byte = 'd'
	TagString      byte = 'S'
	TagStringChunk byte = 's'
	TagXML         byte = 'X'
	TagXMLChunk    byte = 'x'
	TagBytes       byte = 'B'
	TagBytesChunk  byte = 'b'
	TagList        byte = 'V'
	TagMap         byte = 'M'
	TagType        byte = 't'
	TagLength      byte = 'l'
	TagEnd         byte = 'z'
	TagFault       byte = 'f'
	TagReply       byte = 'r'
	TagCall        byte = 'c'
	TagMethod      byte = 'm'
)

const (
	kMajorVersion = 0x01
	kMinorVersion = 0x00

	kMaxChunk = 0xFFFF
	kMaxDepth = 64

	// upper bound of the capacity preallocated from a declared list length
	kMaxListPrealloc = 1024
)
