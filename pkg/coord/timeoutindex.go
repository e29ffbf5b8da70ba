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
	"sort"
	"time"
)

// timeoutIndex keeps requests with a deadline in ascending deadline order.
// Requests with equal deadlines stay in insertion order, so the head is
// always the unique next request to expire.
type timeoutIndex struct {
	items []*PendingRequest
}

func (x *timeoutIndex) Len() int {
	return len(x.items)
}

func (x *timeoutIndex) head() *PendingRequest {
	if len(x.items) == 0 {
		return nil
	}
	return x.items[0]
}

// insert adds r after every entry with a deadline not later than its own and
// reports whether r became the head.
func (x *timeoutIndex) insert(r *PendingRequest) bool {
	i := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].TimeoutAt.After(r.TimeoutAt)
	})
	x.items = append(x.items, nil)
	copy(x.items[i+1:], x.items[i:])
	x.items[i] = r
	return i == 0
}

// remove deletes r and reports whether it was the head.
func (x *timeoutIndex) remove(r *PendingRequest) bool {
	i := sort.Search(len(x.items), func(i int) bool {
		return !x.items[i].TimeoutAt.Before(r.TimeoutAt)
	})
	for ; i < len(x.items); i++ {
		if x.items[i] == r {
			copy(x.items[i:], x.items[i+1:])
			x.items[len(x.items)-1] = nil
			x.items = x.items[:len(x.items)-1]
			return i == 0
		}
		if x.items[i].TimeoutAt.After(r.TimeoutAt) {
			break
		}
	}
	return false
}

// popDue removes and returns, in order, every request whose deadline is not
// after now.
func (x *timeoutIndex) popDue(now time.Time) (due []*PendingRequest) {
	n := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].TimeoutAt.After(now)
	})
	if n == 0 {
		return nil
	}
	due = make([]*PendingRequest, n)
	copy(due, x.items[:n])
	rest := copy(x.items, x.items[n:])
	for i := rest; i < len(x.items); i++ {
		x.items[i] = nil
	}
	x.items = x.items[:rest]
	return
}

func (x *timeoutIndex) clear() {
	x.items = nil
}
