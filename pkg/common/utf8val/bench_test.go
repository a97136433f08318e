// Copyright 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utf8val

import (
	"strings"
	"testing"

	"github.com/matrixorigin/bytestream/pkg/common/fragment"
)

var benchText = []byte(strings.Repeat("héllo wörld €𝄞 ", 256))

func BenchmarkValidateASCII(b *testing.B) {
	p := []byte(strings.Repeat("hello world ", 341))
	b.SetBytes(int64(len(p)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !Validate(p) {
			b.Fatal("unexpected invalid")
		}
	}
}

func BenchmarkValidateMultibyte(b *testing.B) {
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !Validate(benchText) {
			b.Fatal("unexpected invalid")
		}
	}
}

func BenchmarkValidateFragmented(b *testing.B) {
	var parts [][]byte
	for start := 0; start < len(benchText); start += 497 {
		end := start + 497
		if end > len(benchText) {
			end = len(benchText)
		}
		parts = append(parts, benchText[start:end])
	}
	b.SetBytes(int64(len(benchText)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ValidateFragmented(fragment.FromSlices(parts)) != -1 {
			b.Fatal("unexpected invalid")
		}
	}
}
