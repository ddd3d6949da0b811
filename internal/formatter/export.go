// package formatter paints listings into view models and exports them (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/figx/internal/shared"
)

// Export formats accepted by [WriteExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// ExportToJSON encodes the painted grid.
func ExportToJSON(grid GridView) ([]byte, error) {
	return shared.MarshalJSON(grid, true)
}

// ExportToCSV converts a grid to CSV with columns: Origin, ID, Title, Year, Rating, Poster, Link
func ExportToCSV(grid GridView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Origin", "ID", "Title", "Year", "Rating", "Poster", "Link"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, card := range grid.Cards {
		record := []string{
			card.Badge,
			strconv.Itoa(card.TargetID),
			card.Title,
			card.Year,
			card.Rating,
			card.Poster,
			card.Href,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a grid to Markdown. posters maps a card index to a local image file.
func ExportToMarkdown(grid GridView, title string, posters map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Movies"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	if grid.Empty {
		buf.WriteString(grid.Message + "\n")
		return buf.Bytes(), nil
	}

	local, external := 0, 0
	for _, card := range grid.Cards {
		if card.IsLocal() {
			local++
		} else {
			external++
		}
	}
	buf.WriteString(fmt.Sprintf("**Movies**: %d (%d in our collection, %d from TMDb)\n", len(grid.Cards), local, external))
	if grid.Pagination.Show {
		buf.WriteString(fmt.Sprintf("**%s**\n", grid.Pagination.Indicator))
	}
	buf.WriteString("\n")

	for i, card := range grid.Cards {
		buf.WriteString(fmt.Sprintf("%d. **%s** (%s) ⭐ %s [%s]\n", i+1, card.Title, card.Year, card.Rating, card.Badge))
		if img, ok := posters[i]; ok {
			buf.WriteString(fmt.Sprintf("   ![%s](%s)\n", card.Title, img))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a grid to plain text
func ExportToText(grid GridView) ([]byte, error) {
	var buf bytes.Buffer

	if grid.Empty {
		buf.WriteString(grid.Message + "\n")
		return buf.Bytes(), nil
	}

	for i, card := range grid.Cards {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s (%s) - %s\n", i+1, card.Badge, card.Title, card.Year, card.Rating))
	}
	if grid.Pagination.Show {
		buf.WriteString(fmt.Sprintf("\n%s\n", grid.Pagination.Indicator))
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ExportOpts configures [WriteExport].
type ExportOpts struct {
	Format string
	Path   string // output file, or directory for markdown
	Title  string // markdown heading
	// Posters downloads card posters next to the markdown file. Placeholders are skipped.
	Posters bool
}

// WriteExport writes grid in opts.Format and returns the files it created.
//
// Markdown goes to {Path}/README.md with optional poster_{n}.jpg files; other formats go to Path.
func WriteExport(grid GridView, opts ExportOpts) ([]string, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: export path is required", shared.ErrMissingArgument)
	}

	switch strings.ToLower(opts.Format) {
	case FormatMarkdown, "md":
		return writeMarkdownExport(grid, opts)
	case FormatCSV:
		return writeFile(opts.Path, grid, ExportToCSV)
	case FormatText, "text":
		return writeFile(opts.Path, grid, ExportToText)
	case FormatJSON, "":
		return writeFile(opts.Path, grid, ExportToJSON)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFormat, opts.Format)
	}
}

func writeFile(path string, grid GridView, export func(GridView) ([]byte, error)) ([]string, error) {
	data, err := export(grid)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return []string{path}, nil
}

func writeMarkdownExport(grid GridView, opts ExportOpts) ([]string, error) {
	if err := os.MkdirAll(opts.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var files []string
	posters := map[int]string{}
	if opts.Posters {
		for i, card := range grid.Cards {
			if card.Poster == "" || card.Poster == PlaceholderPoster {
				continue
			}
			data, err := DownloadImage(card.Poster)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to download poster for %s: %v\n", card.Title, err)
				continue
			}
			name := fmt.Sprintf("poster_%d.jpg", i+1)
			path := filepath.Join(opts.Path, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save poster: %v\n", err)
				continue
			}
			posters[i] = name
			files = append(files, path)
		}
	}

	mdData, err := ExportToMarkdown(grid, opts.Title, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(opts.Path, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return append(files, mdFile), nil
}
