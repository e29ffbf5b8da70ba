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

package coord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutIndex(t *testing.T) {
	base := time.Unix(1000, 0)
	mk := func(id int32, secs int) *PendingRequest {
		return &PendingRequest{CorrelationID: id, TimeoutAt: base.Add(time.Duration(secs) * time.Second)}
	}
	var x timeoutIndex
	a, b, c, d := mk(1, 5), mk(2, 3), mk(3, 5), mk(4, 1)

	assert.True(t, x.insert(a))
	assert.True(t, x.insert(b))
	assert.False(t, x.insert(c))
	assert.True(t, x.insert(d))
	require.Equal(t, 4, x.Len())
	assert.Equal(t, []*PendingRequest{d, b, a, c}, x.items)

	assert.False(t, x.remove(a))
	assert.Equal(t, []*PendingRequest{d, b, c}, x.items)
	assert.False(t, x.remove(a), "already removed")
	assert.True(t, x.remove(d))
	assert.Equal(t, b, x.head())

	due := x.popDue(base.Add(4 * time.Second))
	assert.Equal(t, []*PendingRequest{b}, due)
	assert.Nil(t, x.popDue(base.Add(4*time.Second)))
	assert.Equal(t, []*PendingRequest{c}, x.popDue(base.Add(5*time.Second)))
	assert.Nil(t, x.head())
}
