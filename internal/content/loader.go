package content

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LoadCategories loads vocabulary categories from a list of paths (files or
// directories). Each file becomes one category named after its base name.
func LoadCategories(paths []string) ([]Category, error) {
	var categories []Category

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			files, err := os.ReadDir(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read dir %s: %w", path, err)
			}
			for _, entry := range files {
				if entry.IsDir() {
					continue
				}
				c, err := loadFile(filepath.Join(path, entry.Name()))
				if err != nil {
					return nil, err
				}
				if len(c.Items) > 0 {
					categories = append(categories, c)
				}
			}
		} else {
			c, err := loadFile(path)
			if err != nil {
				return nil, err
			}
			if len(c.Items) > 0 {
				categories = append(categories, c)
			}
		}
	}

	return categories, nil
}

// loadFile parses one vocabulary file. Lines have the form
//
//	word | description | mediaRef
//
// where description and mediaRef are optional. Blank lines and lines starting
// with '#' are skipped.
func loadFile(path string) (Category, error) {
	file, err := os.Open(path)
	if err != nil {
		return Category{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	name := categoryName(path)
	var items []Item

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		item := Item{
			ID:   uuid.NewString(),
			Word: strings.TrimSpace(parts[0]),
		}
		if item.Word == "" {
			continue
		}
		if len(parts) > 1 {
			item.Description = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			item.MediaRef = strings.TrimSpace(parts[2])
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return Category{}, fmt.Errorf("failed to scan file %s: %w", path, err)
	}

	return Category{Name: name, Items: items}, nil
}

func categoryName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return base
}
