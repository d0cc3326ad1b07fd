package java

import (
	"strings"

	"github.com/dhamidi/dew/classfile"
)

// annotationsOf collects the runtime visible and invisible annotations
// stored in attrs.
func annotationsOf(attrs []classfile.AttributeInfo, cp classfile.ConstantPool) []AnnotationModel {
	var out []AnnotationModel
	for i := range attrs {
		var anns []classfile.Annotation
		switch parsed := attrs[i].Parsed.(type) {
		case *classfile.RuntimeVisibleAnnotationsAttribute:
			anns = parsed.Annotations
		case *classfile.RuntimeInvisibleAnnotationsAttribute:
			anns = parsed.Annotations
		default:
			continue
		}
		for _, a := range anns {
			out = append(out, annotationModel(a, cp))
		}
	}
	return out
}

func annotationModel(a classfile.Annotation, cp classfile.ConstantPool) AnnotationModel {
	m := AnnotationModel{Type: descriptorToTypeName(cp.GetUtf8(a.TypeIndex))}
	if len(a.ElementValuePairs) > 0 {
		m.Values = make(map[string]interface{}, len(a.ElementValuePairs))
		for _, p := range a.ElementValuePairs {
			m.Values[cp.GetUtf8(p.ElementNameIndex)] = elementValue(p.Value, cp)
		}
	}
	return m
}

func elementValue(ev classfile.ElementValue, cp classfile.ConstantPool) interface{} {
	switch ev.Tag {
	case 'B', 'C', 'I', 'S':
		if idx, ok := ev.Value.(uint16); ok {
			if v, found := cp.GetInteger(idx); found {
				return v
			}
		}
	case 'Z':
		if idx, ok := ev.Value.(uint16); ok {
			if v, found := cp.GetInteger(idx); found {
				return v != 0
			}
		}
	case 'D':
		if idx, ok := ev.Value.(uint16); ok {
			if v, found := cp.GetDouble(idx); found {
				return v
			}
		}
	case 'F':
		if idx, ok := ev.Value.(uint16); ok {
			if v, found := cp.GetFloat(idx); found {
				return v
			}
		}
	case 'J':
		if idx, ok := ev.Value.(uint16); ok {
			if v, found := cp.GetLong(idx); found {
				return v
			}
		}
	case 's':
		if idx, ok := ev.Value.(uint16); ok {
			return cp.GetUtf8(idx)
		}
	case 'e':
		if e, ok := ev.Value.(classfile.EnumConstValue); ok {
			return descriptorToTypeName(cp.GetUtf8(e.TypeNameIndex)) + "." + cp.GetUtf8(e.ConstNameIndex)
		}
	case 'c':
		if idx, ok := ev.Value.(uint16); ok {
			return descriptorToTypeName(cp.GetUtf8(idx))
		}
	case '@':
		if a, ok := ev.Value.(classfile.Annotation); ok {
			return annotationModel(a, cp)
		}
	case '[':
		if arr, ok := ev.Value.(classfile.ArrayValue); ok {
			out := make([]interface{}, len(arr.Values))
			for i, v := range arr.Values {
				out[i] = elementValue(v, cp)
			}
			return out
		}
	}
	return nil
}

func descriptorToTypeName(desc string) string {
	if len(desc) > 1 && desc[0] == 'L' && desc[len(desc)-1] == ';' {
		return binaryToSourceName(desc[1 : len(desc)-1])
	}
	return desc
}

// binaryToSourceName turns x/y/Outer$Inner into x.y.Outer.Inner.
func binaryToSourceName(internal string) string {
	return strings.ReplaceAll(classfile.InternalToSourceName(internal), "$", ".")
}

func hasAnnotation(anns []AnnotationModel, name string) bool {
	for _, a := range anns {
		if a.Type == name {
			return true
		}
	}
	return false
}
