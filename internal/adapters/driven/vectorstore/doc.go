// Package vectorstore implements driven.VectorStore with one SQLite
// database per source kind at <base>/<kind>/index.db.
//
// Vectors are stored as little-endian float32 blobs and searched by
// exhaustive squared-L2 scan. Each database records the embedding model
// and dimensionality it was created with; adds and queries from a
// different embedder are refused.
package vectorstore
