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

// Package utf8val validates UTF-8 text on the ingestion path. It can check
// a flat byte span or a logical stream delivered as arbitrary fragments,
// without requiring the caller to make the bytes contiguous first.
//
// Invalid text is an expected occurrence, so validity is always reported as
// a value (the offset of the first invalid byte, or -1), never as an error.
package utf8val

import (
	"github.com/matrixorigin/bytestream/pkg/common/fragment"
)

// partialResult is the outcome of validating a flat span that may end in
// the middle of a multi-byte codepoint. If invalid is false, up to 3
// trailing bytes (unvalidatedTail) could be the truncated beginning of a
// codepoint continuing past the span; bytesNeededForTail is how many more
// bytes would complete it.
type partialResult struct {
	invalid            bool
	unvalidatedTail    int
	bytesNeededForTail int
}

// sequenceInfo classifies a lead byte: the total sequence length and the
// accepted range for the second byte. size 0 means the byte can never
// start a sequence. Bytes three and four are always 0x80..0xBF.
func sequenceInfo(lead byte) (size int, lo, hi byte) {
	switch {
	case lead < 0x80:
		return 1, 0, 0
	case lead < 0xC2:
		// continuation byte, or an overlong 2-byte lead
		return 0, 0, 0
	case lead < 0xE0:
		return 2, 0x80, 0xBF
	case lead == 0xE0:
		return 3, 0xA0, 0xBF
	case lead == 0xED:
		return 3, 0x80, 0x9F // excludes surrogates
	case lead < 0xF0:
		return 3, 0x80, 0xBF
	case lead == 0xF0:
		return 4, 0x90, 0xBF
	case lead < 0xF4:
		return 4, 0x80, 0xBF
	case lead == 0xF4:
		return 4, 0x80, 0x8F // excludes > U+10FFFF
	default:
		// would encode beyond U+10FFFF
		return 0, 0, 0
	}
}

// scan walks p codepoint by codepoint. It returns the offset of the first
// ill-formed sequence (-1 if none), plus the length and byte deficit of a
// trailing incomplete sequence whose present bytes are all range-correct.
// It never looks past the end of p.
func scan(p []byte) (errPos, tail, needed int) {
	i, n := 0, len(p)
	for i < n {
		lead := p[i]
		if lead < 0x80 {
			i++
			continue
		}
		size, lo, hi := sequenceInfo(lead)
		if size == 0 {
			return i, 0, 0
		}
		avail := size
		if n-i < avail {
			avail = n - i
		}
		for j := 1; j < avail; j++ {
			c := p[i+j]
			if j == 1 {
				if c < lo || c > hi {
					return i, 0, 0
				}
			} else if c < 0x80 || c > 0xBF {
				return i, 0, 0
			}
		}
		if avail < size {
			return -1, avail, size - avail
		}
		i += size
	}
	return -1, 0, 0
}

// validatePartial checks a flat span for UTF-8 correctness, leaving a
// possibly-incomplete trailing sequence unvalidated rather than rejecting
// it. It intentionally does not report where an error is; callers that
// need the position rerun the precise scan on the failing span only.
func validatePartial(p []byte) partialResult {
	errPos, tail, needed := scan(p)
	if errPos >= 0 {
		return partialResult{invalid: true}
	}
	return partialResult{unvalidatedTail: tail, bytesNeededForTail: needed}
}

// Validate reports whether p is entirely valid UTF-8. A trailing truncated
// codepoint makes p invalid.
func Validate(p []byte) bool {
	errPos, tail, _ := scan(p)
	return errPos < 0 && tail == 0
}

// ValidateWithErrorPosition returns the offset of the first invalid byte
// in p, or -1 if p is valid UTF-8. For an ill-formed multi-byte sequence
// the reported offset is that of its lead byte.
func ValidateWithErrorPosition(p []byte) int {
	errPos, tail, _ := scan(p)
	if errPos >= 0 {
		return errPos
	}
	if tail > 0 {
		return len(p) - tail
	}
	return -1
}

// ValidateFragmented validates the logical concatenation of all fragments
// produced by it, returning the offset of the first invalid byte relative
// to the start of the concatenation, or -1 if the whole stream is valid.
//
// A codepoint may straddle any number of fragment boundaries; up to 4
// bytes are carried across them. When a carried codepoint turns out to be
// ill-formed, the reported offset is that of its first byte.
func ValidateFragmented(it fragment.Iter) int {
	var partial [4]byte
	partialFilled := 0
	partialNeeded := 0
	bytesValidated := 0
	for {
		data, ok := it.Next()
		if !ok {
			break
		}
		if partialNeeded > 0 {
			// Tiny loop (often zero iterations), don't call copy.
			for partialNeeded > 0 && len(data) > 0 {
				partial[partialFilled] = data[0]
				partialFilled++
				partialNeeded--
				data = data[1:]
			}
			if partialNeeded > 0 {
				// fragment exhausted before the codepoint completed
				continue
			}
			// A codepoint that straddled two or more fragments is now
			// complete, validate it on its own.
			if pr := validatePartial(partial[:partialFilled]); pr.invalid {
				return bytesValidated
			}
			bytesValidated += partialFilled
			partialFilled = 0
			if len(data) == 0 {
				continue
			}
		}
		pr := validatePartial(data)
		if pr.invalid {
			return bytesValidated + ValidateWithErrorPosition(data)
		}
		bytesValidated += len(data) - pr.unvalidatedTail
		copy(partial[:], data[len(data)-pr.unvalidatedTail:])
		partialFilled = pr.unvalidatedTail
		partialNeeded = pr.bytesNeededForTail
	}
	if partialNeeded > 0 {
		return bytesValidated
	}
	return -1
}
