// flex_list.go
//
// Internship application lifecycle service
// Copyright (c) 2026 The training-rcf Authors
//
// This file is part of training-rcf.
// training-rcf is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// training-rcf is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with training-rcf.
// If not, see <https://www.gnu.org/licenses/>.

package types

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

var errInvalidList = errors.New("invalid list")

// FlexList decodes a JSON array, a single object or an empty value into a slice.
// College forms post one faculty as an object and several as an array. Multipart
// forms may carry the whole value as an encoded string. Null entries are dropped.
type FlexList[T any] []T

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexList[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errInvalidList
	}
	v := gjson.ParseBytes(data)
	if v.Type == gjson.String {
		if v.Str == "" {
			*f = nil
			return nil
		}
		if !gjson.Valid(v.Str) {
			return errInvalidList
		}
		v = gjson.Parse(v.Str)
	}

	switch {
	case v.Type == gjson.Null:
		*f = nil
	case v.IsArray():
		entries := v.Array()
		out := make(FlexList[T], 0, len(entries))
		for i, e := range entries {
			if e.Type == gjson.Null {
				continue
			}
			var item T
			if err := sonic.UnmarshalString(e.Raw, &item); err != nil {
				return fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, item)
		}
		*f = out
	default:
		var item T
		if err := sonic.UnmarshalString(v.Raw, &item); err != nil {
			return err
		}
		*f = FlexList[T]{item}
	}
	return nil
}

// Slice returns the decoded entries.
func (f FlexList[T]) Slice() []T {
	return []T(f)
}
