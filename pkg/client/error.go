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

package client

import (
	"synccore/pkg/errors"
)

// retryable tells, per error number, whether submitting the same request
// again may succeed.
var retryable = map[uint32]bool{
	errors.KErrTimeout:      true,
	errors.KErrTransport:    true,
	errors.KErrBusy:         true,
	errors.KErrNoConnection: true,
	errors.KErrCancelled:    true,

	errors.KErrFormat:      false,
	errors.KErrProtocol:    false,
	errors.KErrUnrouted:    false,
	errors.KErrServerFault: false,
}

// IsRetryable reports whether err, as carried by a response, is transient.
func IsRetryable(err error) bool {
	return retryable[errors.ErrNoOf(err)]
}
