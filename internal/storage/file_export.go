package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/liquidsim/internal/world"
)

// compressedExt - расширение файлов, которые пишутся через zstd
const compressedExt = ".zst"

// ExportSnapshot записывает снимок в файл JSON. Файлы с расширением .zst
// сжимаются. Запись идёт во временный файл с последующим переименованием.
func ExportSnapshot(path string, snap world.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию для %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("ошибка создания файла: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeSnapshot(tmp, snap, strings.HasSuffix(path, compressedExt)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("ошибка переименования в %s: %w", path, err)
	}
	return nil
}

func writeSnapshot(w io.Writer, snap world.Snapshot, compressed bool) error {
	if !compressed {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return zw.Close()
}

// ImportSnapshot читает снимок, записанный ExportSnapshot
func ImportSnapshot(path string) (world.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return world.Snapshot{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, compressedExt) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return world.Snapshot{}, err
		}
		defer zr.Close()
		r = zr
	}

	var snap world.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return world.Snapshot{}, fmt.Errorf("ошибка чтения снимка %s: %w", path, err)
	}
	return snap, nil
}
