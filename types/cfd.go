package types

import (
	"fmt"
	"strings"
)

type SurfaceType uint8

const (
	Surface_None SurfaceType = iota
	Surface_Wing
	Surface_Body
)

var SurfaceNameMap = map[string]SurfaceType{
	"wing":    Surface_Wing,
	"lifting": Surface_Wing,
	"body":    Surface_Body,
	"fuse":    Surface_Body,
	"nacelle": Surface_Body,
}

func (st SurfaceType) String() string {
	switch st {
	case Surface_Wing:
		return "Wing"
	case Surface_Body:
		return "Body"
	}
	return "None"
}

func NewSurfaceType(label string) (st SurfaceType, err error) {
	var ok bool
	if st, ok = SurfaceNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown surface type %q, must be one of wing, body", label)
	}
	return
}
