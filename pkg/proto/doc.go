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

/*
Package proto implements the frame layer of the sync protocol.

Frame

A frame is a 16-byte header followed by the payload
  +-------------------+------------------------------------------+
  | 16-byte header    | payload (payload length bytes)           |
  +-------------------+------------------------------------------+

Header

        |0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|0|1|2|3|4|5|6|7|
   byte |              0|              1|              2|              3|
  ------+---------------+---------------+---------------+---------------+
      0 | sync marker 0xFFFF            | type          | correlation   |
  ------+-------------------------------+---------------+               +
      4 | id (big endian int32)                         | reserved      |
  ------+-----------------------------------------------+               +
      8 | (zero)                                        | payload       |
  ------+-----------------------------------------------+               +
     12 | length (big endian int32)                     | compressed    |
  ------+-----------------------------------------------+---------------+

  type:
      0  Poll                      7  SetAvailability
      1  ExternalRequest           8  GetPresence
      2  ExternalResponse          9  PresenceResponse
      3  Push                     10  SendIM
      4  InternalRequest          11  ChatGetConversation
      5  FetchContacts            12  ChatCloseConversation
      6  InternalResponse        100  Heartbeat
                                 101  ConnectionTest

  compressed:
    0 plain payload, 1 payload compressed with the configured codec (zlib
    or snappy)

Payload

Internal requests carry a call envelope and internal responses, pushes and
presence responses a reply envelope of the tagged binary codec (package
codec). External responses are opaque.

A stream is a concatenation of frames. Splitter reads it lazily; the first
header that does not validate ends the stream.
*/
package proto
