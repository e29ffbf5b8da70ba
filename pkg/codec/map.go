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

package codec

import (
	"sort"
	"time"
)

// Map is a string keyed map that remembers insertion order. The encoder
// writes its entries in that order; decoding always yields map[string]any.
type Map struct {
	keys []string
	vals map[string]any
}

func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// Set adds or replaces an entry. A replaced entry keeps its position.
func (m *Map) Set(key string, value any) *Map {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}
	if _, found := m.vals[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
	return m
}

func (m *Map) Get(key string) (v any, ok bool) {
	v, ok = m.vals[key]
	return
}

func (m *Map) Keys() []string {
	return m.keys
}

func (m *Map) Len() int {
	return len(m.keys)
}

func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, len(m.keys))
	for k, v := range m.vals {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns m[key] when it is a string.
func GetString(m map[string]any, key string) (s string, ok bool) {
	s, ok = m[key].(string)
	return
}

// GetInt64 returns m[key] when it is an integer of either width.
func GetInt64(m map[string]any, key string) (int64, bool) {
	switch v := m[key].(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func GetBool(m map[string]any, key string) (b bool, ok bool) {
	b, ok = m[key].(bool)
	return
}

func GetTime(m map[string]any, key string) (t time.Time, ok bool) {
	t, ok = m[key].(time.Time)
	return
}

func GetList(m map[string]any, key string) (l []any, ok bool) {
	l, ok = m[key].([]any)
	return
}

func GetMap(m map[string]any, key string) (v map[string]any, ok bool) {
	v, ok = m[key].(map[string]any)
	return
}
