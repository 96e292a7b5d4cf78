package slab

import (
	"path/filepath"

	"github.com/google/uuid"
)

const MetaFileName = "dataset.json"

const slabExtension = ".slab"

func metaPath(dir string) string {
	return filepath.Join(dir, MetaFileName)
}

func slabPath(dir string, uid uuid.UUID) string {
	return filepath.Join(dir, uid.String()+slabExtension)
}
