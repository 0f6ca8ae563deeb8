package logging

import (
	"fmt"
	"reflect"
)

const (
	maxDumpDepth    = 10
	maxDumpElements = 10
)

// Dump writes the exported contents of v to l at debug level, one event per
// leaf value. Pointer cycles are cut and slices are truncated.
func Dump(l Logger, v interface{}) {
	if l == nil {
		return
	}
	d := dumper{log: l, visited: map[uintptr]bool{}}
	d.value(reflect.ValueOf(v), "value", 0)
}

type dumper struct {
	log     Logger
	visited map[uintptr]bool
}

func (d *dumper) emit(path, format string, args ...interface{}) {
	d.log.DebugWith().Str("path", path).Msgf(format, args...)
}

func (d *dumper) value(val reflect.Value, path string, depth int) {
	if depth > maxDumpDepth {
		d.emit(path, "<max depth reached>")
		return
	}

	for val.Kind() == reflect.Interface || val.Kind() == reflect.Ptr {
		if val.IsNil() {
			d.emit(path, "<nil>")
			return
		}
		if val.Kind() == reflect.Ptr {
			if d.visited[val.Pointer()] {
				d.emit(path, "<circular reference>")
				return
			}
			d.visited[val.Pointer()] = true
		}
		val = val.Elem()
	}
	if !val.IsValid() {
		d.emit(path, "<nil>")
		return
	}

	switch val.Kind() {
	case reflect.Struct:
		typ := val.Type()
		d.emit(path, "%s {", typ.String())
		for i := 0; i < val.NumField(); i++ {
			if !typ.Field(i).IsExported() {
				continue
			}
			d.value(val.Field(i), path+"."+typ.Field(i).Name, depth+1)
		}
	case reflect.Map:
		d.emit(path, "%s (len: %d)", val.Type().String(), val.Len())
		iter := val.MapRange()
		for iter.Next() {
			d.value(iter.Value(), fmt.Sprintf("%s[%v]", path, iter.Key().Interface()), depth+1)
		}
	case reflect.Slice, reflect.Array:
		d.emit(path, "%s (len: %d)", val.Type().String(), val.Len())
		for i := 0; i < val.Len() && i < maxDumpElements; i++ {
			d.value(val.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1)
		}
		if val.Len() > maxDumpElements {
			d.emit(path, "... (%d more elements)", val.Len()-maxDumpElements)
		}
	default:
		if val.CanInterface() {
			d.emit(path, "%v", val.Interface())
		} else {
			d.emit(path, "%v", val)
		}
	}
}
