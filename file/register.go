package file

var fileReaders = map[string]FileItemReader{}

// RegisterFileType register a FileItemReader for a non-standard file type
func RegisterFileType(ftype string, reader FileItemReader) {
	fileReaders[ftype] = reader
}

// GetFileItemReader get FileItemReader by type
func GetFileItemReader(ftype string) FileItemReader {
	switch ftype {
	case CSV:
		return &delimitedFileItemReader{}
	default:
		return fileReaders[ftype]
	}
}

var checksumVerifiers = map[string]ChecksumVerifier{}

func RegisterChecksumVerifier(key string, v ChecksumVerifier) {
	checksumVerifiers[key] = v
}

// GetChecksumVerifier get ChecksumVerifier by algorithm
func GetChecksumVerifier(key string) ChecksumVerifier {
	switch key {
	case OKFlag:
		return &OKFlagVerifier{}
	case MD5:
		return md5Verifier
	case SHA1:
		return sha1Verifier
	case SHA256:
		return sha256Verifier
	case SHA512:
		return sha512Verifier
	default:
		return checksumVerifiers[key]
	}
}
