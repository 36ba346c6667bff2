package file

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"strings"
)

//OKFlagVerifier verifies an empty flag file named <file>.ok or <file without extension>.ok exists beside the data file
type OKFlagVerifier struct {
}

func (v *OKFlagVerifier) Verify(fd FileObjectModel) (bool, error) {
	fs := fd.FileStore
	ok, err := fs.Exists(fd.FileName)
	if err != nil || !ok {
		return false, err
	}
	_, ok, err = findSidecar(fs, fd.FileName, "ok")
	return ok, err
}

//DigestVerifier verifies the hex digest stored in a sidecar file (<file>.md5, <file>.sha256, ...) matches the data file
type DigestVerifier struct {
	Algorithm string
	NewHash   func() hash.Hash
}

func (v *DigestVerifier) Verify(fd FileObjectModel) (bool, error) {
	fs := fd.FileStore
	ok, err := fs.Exists(fd.FileName)
	if err != nil || !ok {
		return false, err
	}
	checkFile, ok, err := findSidecar(fs, fd.FileName, v.Algorithm)
	if err != nil || !ok {
		return false, err
	}
	expected, err := readAll(fs, checkFile)
	if err != nil {
		return false, err
	}
	reader, err := fs.Open(fd.FileName)
	if err != nil {
		return false, err
	}
	defer reader.Close()
	digest := v.NewHash()
	if _, err = io.Copy(digest, reader); err != nil {
		return false, err
	}
	actual := fmt.Sprintf("%x", digest.Sum(nil))
	return strings.EqualFold(strings.TrimSpace(expected), actual), nil
}

//findSidecar looks for <file>.<ext> then <file without extension>.<ext>, in lower and upper case
func findSidecar(fs FileStorage, fileName string, ext string) (string, bool, error) {
	bases := []string{fileName}
	if dotIdx := strings.LastIndex(fileName, "."); dotIdx > 0 {
		bases = append(bases, fileName[0:dotIdx])
	}
	for _, base := range bases {
		for _, e := range []string{strings.ToLower(ext), strings.ToUpper(ext)} {
			candidate := fmt.Sprintf("%s.%s", base, e)
			ok, err := fs.Exists(candidate)
			if err != nil {
				return "", false, err
			}
			if ok {
				return candidate, true, nil
			}
		}
	}
	return "", false, nil
}

func readAll(fs FileStorage, fileName string) (string, error) {
	reader, err := fs.Open(fileName)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	buf, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

var (
	md5Verifier    = &DigestVerifier{Algorithm: MD5, NewHash: md5.New}
	sha1Verifier   = &DigestVerifier{Algorithm: SHA1, NewHash: sha1.New}
	sha256Verifier = &DigestVerifier{Algorithm: SHA256, NewHash: sha256.New}
	sha512Verifier = &DigestVerifier{Algorithm: SHA512, NewHash: sha512.New}
)
