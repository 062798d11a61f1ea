package dto

import "io"

// UploadFile is a photo received from a client.
type UploadFile struct {
	Reader      io.Reader
	FileName    string
	ContentType string
}

type PhotoContent struct {
	Data     []byte
	FileName string
	FileType string
}
