// Copyright 2026 The Travel Model One Authors
// SPDX-License-Identifier: Apache-2.0

// Package filehash computes BLAKE3 digests for model artifacts and
// pipeline definitions. All hashing is domain-keyed: the same bytes
// hashed as a pipeline definition and as an output file produce
// different digests, so a digest can never be mistaken for one from
// another context.
package filehash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest.
type Digest [32]byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The byte
// values are the ASCII encoding of the domain name, zero-padded to
// 32 bytes, so the keys are inspectable in hex dumps without
// sacrificing any property of keyed hashing.
type domainKey [32]byte

// Domain separation keys. These are fixed constants — changing them
// invalidates all recorded digests in that domain (checkpoint
// fingerprints, checksum-copy comparisons).
var (
	definitionDomainKey = domainKey{
		't', 'm', '.', 'p', 'i', 'p', 'e', 'l', 'i', 'n', 'e', '.',
		'd', 'e', 'f', 'i', 'n', 'i', 't', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	artifactDomainKey = domainKey{
		't', 'm', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't', '.',
		'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Definition computes the definition-domain digest of a parsed
// pipeline's canonical bytes. The runner stores this in checkpoints
// so a resume against an edited pipeline is refused rather than
// silently skipping steps that no longer match.
func Definition(data []byte) Digest {
	return keyedHash(definitionDomainKey, data)
}

// Artifact computes the artifact-domain digest of in-memory file
// content. Used by tests and small files; use [ArtifactFile] for
// streaming from disk.
func Artifact(data []byte) Digest {
	return keyedHash(artifactDomainKey, data)
}

// ArtifactFile computes the artifact-domain digest of a file's
// content, streaming rather than loading the file into memory.
// Model outputs (trip matrices, network shapefiles) are routinely
// hundreds of megabytes.
func ArtifactFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	key := artifactDomainKey
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		return Digest{}, fmt.Errorf("initializing hasher: %w", err)
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

func keyedHash(key domainKey, data []byte) Digest {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails on a key length other than 32 bytes,
		// which the domainKey type rules out.
		panic("filehash: keyed hasher initialization failed: " + err.Error())
	}
	hasher.Write(data)

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}
