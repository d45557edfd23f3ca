package dospath

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
)

// Digest is a 128-bit content digest, printed as lower-case hex, matching
// the MD5 field format used throughout package.ini, mpm.ini, and pr.ini.
type Digest [md5.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest parses the hex form written by String.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	if len(b) != md5.Size {
		return d, fmt.Errorf("invalid digest %q: wrong length", s)
	}
	copy(d[:], b)
	return d, nil
}

// FileDigest streams path's bytes through MD5 and returns the digest.
func FileDigest(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("mpc: reading %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, fmt.Errorf("mpc: hashing %s: %w", path, err)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// CopyWithDigest copies src to dst while hashing the bytes as they pass
// through, then mirrors src's modification time onto dst so archives built
// from staging trees don't appear to change on every rebuild. Any read,
// write, stat, or chtimes failure is returned as an error.
func CopyWithDigest(src, dst string) (Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return Digest{}, fmt.Errorf("mpc: reading %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return Digest{}, fmt.Errorf("mpc: stat %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return Digest{}, fmt.Errorf("mpc: writing %s: %w", dst, err)
	}

	h := md5.New()
	_, err = io.Copy(out, io.TeeReader(in, h))
	closeErr := out.Close()
	if err != nil {
		return Digest{}, fmt.Errorf("mpc: copying %s to %s: %w", src, dst, err)
	}
	if closeErr != nil {
		return Digest{}, fmt.Errorf("mpc: closing %s: %w", dst, closeErr)
	}

	mtime := info.ModTime()
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return Digest{}, fmt.Errorf("mpc: touching %s: %w", dst, err)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// FileDigests is the ordered (relative path -> file digest) map that
// TdsDigest hashes. It is always traversed in DOS-sorted key order: that
// order is part of the wire contract, not an implementation detail.
type FileDigests map[string]Digest

func (fd FileDigests) sortedPaths() []string {
	paths := make([]string, 0, len(fd))
	for p := range fd {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return Less(paths[i], paths[j]) })
	return paths
}

// TdsDigest hashes the sorted (dos-path, file-digest) pairs of fd: for each
// entry, in case-insensitive DOS-sorted key order, it feeds the
// DOS-normalized path bytes followed by the 16 digest bytes into a single
// MD5 builder. Reimplementations must reproduce this exact order; it is the
// content-identity hash recorded as a package's TDS digest.
func TdsDigest(fd FileDigests) Digest {
	h := md5.New()
	for _, p := range fd.sortedPaths() {
		norm := Normalize(p)
		h.Write([]byte(norm))
		digest := fd[p]
		h.Write(digest[:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
