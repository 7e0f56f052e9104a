package service

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newID() (string, error) {
	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return "", fmt.Errorf("failed to generate id, %w", err)
	}

	return id, nil
}
