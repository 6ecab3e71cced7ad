package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

func SaveFile(file multipart.File, header *multipart.FileHeader, folder string) (string, error) {
	// extension comes from the upload, so scrub it before it reaches a path
	filename := fmt.Sprintf("%s%s", GenerateRandomString(12), SanitizeFilename(filepath.Ext(header.Filename)))
	filePath := filepath.Join(folder, filename)

	out, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err = io.Copy(out, file); err != nil {
		return "", err
	}

	return filename, nil
}
