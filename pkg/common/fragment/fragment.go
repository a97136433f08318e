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

// Package fragment models a logical byte stream delivered as a finite
// sequence of disjoint contiguous spans. Consumers that can process such a
// stream piecewise (e.g. UTF-8 validation) take an Iter instead of forcing
// the producer to materialize the bytes contiguously.
package fragment

// Iter yields the fragments of one logical byte stream, in order.
// An Iter is single pass and not restartable. Zero-length fragments are
// legal; consumers must treat them as no-ops.
type Iter interface {
	// Next returns the next fragment and true, or nil and false once the
	// sequence is exhausted. The returned slice is only a view; it must not
	// be retained past the producer's next structural mutation.
	Next() ([]byte, bool)
}

type singleIter struct {
	data []byte
	done bool
}

func (it *singleIter) Next() ([]byte, bool) {
	if it.done {
		return nil, false
	}
	it.done = true
	return it.data, true
}

// Single returns an Iter over a stream made of exactly one fragment.
func Single(p []byte) Iter {
	return &singleIter{data: p}
}

type sliceIter struct {
	parts [][]byte
}

func (it *sliceIter) Next() ([]byte, bool) {
	if len(it.parts) == 0 {
		return nil, false
	}
	p := it.parts[0]
	it.parts = it.parts[1:]
	return p, true
}

// FromSlices returns an Iter yielding each element of ps as one fragment.
// ps itself is not copied.
func FromSlices(ps [][]byte) Iter {
	return &sliceIter{parts: ps}
}
