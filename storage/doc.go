// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage provides the persistence abstraction for the semantic index.
//
// An index is persisted as two artifacts with equal row counts: the vector
// artifact (model, dimension, normalized vectors and their surrogate row ids)
// and the metadata artifact (ordered paragraph records). Row position is the
// join key between them; the surrogate ids let a reader detect when the two
// have drifted apart.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the storage interfaces:
//
//	repo, err := badger.NewRepository(path)  // returns storage.IndexRepository
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Encoding
//
// Rows are encoded with mus-go: ids as varints, strings length-prefixed and
// vector components as raw float32 values. Serialization helpers live in
// this package so that every backend shares one layout.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
