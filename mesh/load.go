package mesh

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// loadStrategy is one way of decoding mesh geometry from raw file bytes.
// Strategies are tried in priority order; the first success wins.
type loadStrategy struct {
	name string
	read func(io.Reader) ([]r3.Triangle, error)
}

var loadStrategies = []loadStrategy{
	{name: "binary STL", read: readBinarySTL},
	{name: "text STL", read: readTextSTL},
}

// Load reads a mesh from path, trying every known format strategy in
// order. When all strategies fail their causes are aggregated into the
// returned error.
func Load(path string) (*Mesh, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(b, name)
}

// Decode decodes raw mesh file bytes using the format strategy chain.
func Decode(b []byte, name string) (*Mesh, error) {
	var causes []string
	for _, strategy := range loadStrategies {
		triangles, err := strategy.read(bytes.NewReader(b))
		if err == nil {
			return New(triangles, name)
		}
		causes = append(causes, strategy.name+": "+err.Error())
	}
	return nil, fmt.Errorf("no loader could decode mesh %q: %s", name, strings.Join(causes, "; "))
}
