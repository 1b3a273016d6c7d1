package kml

import (
	"fmt"
	"io"

	kmlgeom "github.com/twpayne/go-geom/encoding/kml"
	gokml "github.com/twpayne/go-kml/v3"
)

// Encode writes doc as an indented KML document: one Document container
// holding one Placemark per placemark. ExtendedData is not written.
// A placemark without geometry gets an empty Point.
func Encode(w io.Writer, doc *Document) error {
	children := make([]gokml.Element, 0, doc.Len()+1)
	if doc.Name() != "" {
		children = append(children, gokml.Name(doc.Name()))
	}
	for pm := range doc.Placemarks() {
		el, err := placemarkElement(pm)
		if err != nil {
			return err
		}
		children = append(children, el)
	}

	if err := gokml.KML(gokml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write kml: %w", err)
	}
	return nil
}

func placemarkElement(pm *Placemark) (gokml.Element, error) {
	children := []gokml.Element{gokml.Name(pm.Name())}
	if pm.Description() != "" {
		children = append(children, gokml.Description(pm.Description()))
	}

	if pm.Geometry() == nil {
		children = append(children, gokml.Point())
	} else {
		g, err := kmlgeom.Encode(pm.Geometry())
		if err != nil {
			return nil, fmt.Errorf("encode geometry of %q: %w", pm.Name(), err)
		}
		children = append(children, g)
	}
	return gokml.Placemark(children...), nil
}
