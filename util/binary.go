package util

import (
	"encoding/binary"
	"github.com/pkg/errors"
	"math"
	"reflect"
)

type Datatype int

const (
	DatatypeByte Datatype = iota
	DatatypeInt16
	DatatypeInt24
	DatatypeInt32
	DatatypeInt64
	DatatypeFloat32
	DatatypeFloat64
	DatatypeString // 4 byte length + UTF-8 bytes
	DatatypeBool
)

// BinaryItem is one field of a binary record. Write and Read return the index right behind the processed bytes.
type BinaryItem interface {
	Size(object any) (int, error)
	Write(object any, data []byte, index int) (int, error)
	Read(object any, data []byte, index int) (int, error)
}

// BinarySchema describes a record as an ordered list of items. Objects given to Write may be structs or pointers to
// structs, objects given to Read must be pointers.
type BinarySchema struct {
	Items []BinaryItem // All items of this object schema. They are written and read in the given order.
}

// Size returns the number of bytes Write will produce for the given object.
func (b *BinarySchema) Size(object any) (int, error) {
	size := 0
	for _, item := range b.Items {
		itemSize, err := item.Size(object)
		if err != nil {
			return -1, err
		}
		size += itemSize
	}
	return size, nil
}

func (b *BinarySchema) Write(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Write(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinarySchema) Read(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Read(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

// Marshal allocates a buffer of the exact size and writes the object into it.
func (b *BinarySchema) Marshal(object any) ([]byte, error) {
	size, err := b.Size(object)
	if err != nil {
		return nil, err
	}

	data := make([]byte, size)
	index, err := b.Write(object, data, 0)
	if err != nil {
		return nil, err
	}
	if index != size {
		return nil, errors.Errorf("Schema wrote %d bytes but announced %d bytes", index, size)
	}

	return data, nil
}

type BinaryDataItem struct {
	FieldName  string   // Name of the golang struct field.
	BinaryType Datatype // Type this field should be stored to. This has to be compatible with the FieldType.
}

func (b *BinaryDataItem) Size(object any) (int, error) {
	field, err := fieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	return binaryValueSize(b.BinaryType, b.FieldName, field)
}

func (b *BinaryDataItem) Write(object any, data []byte, index int) (int, error) {
	field, err := fieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	return writeBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

func (b *BinaryDataItem) Read(object any, data []byte, index int) (int, error) {
	field, err := fieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	return readBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

// BinaryRawCollectionItem represents the simple schema for array of e.g. integers. It also stores the size of the array as 32 bit integer.
type BinaryRawCollectionItem struct {
	FieldName  string   // Name of the golang struct slice.
	BinaryType Datatype // Type this field should be stored to. This has to be compatible with the FieldType.
}

func (b *BinaryRawCollectionItem) Size(object any) (int, error) {
	slice, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	size := 4
	for i := 0; i < slice.Len(); i++ {
		elementSize, err := binaryValueSize(b.BinaryType, b.FieldName, slice.Index(i))
		if err != nil {
			return -1, err
		}
		size += elementSize
	}
	return size, nil
}

func (b *BinaryRawCollectionItem) Write(object any, data []byte, index int) (int, error) {
	slice, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(slice.Len()))
	index += 4

	for i := 0; i < slice.Len(); i++ {
		index, err = writeBinaryValue(b.BinaryType, b.FieldName, slice.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryRawCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	length, index, err := readLength(b.FieldName, data, index)
	if err != nil {
		return -1, err
	}

	if length == 0 {
		field.Set(reflect.Zero(field.Type()))
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	for i := 0; i < length; i++ {
		index, err = readBinaryValue(b.BinaryType, b.FieldName, slice.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}
	field.Set(slice)

	return index, nil
}

// BinaryCollectionItem represents the simple schema for array of structs.
type BinaryCollectionItem struct {
	FieldName  string       // Name of the golang struct slice.
	ItemSchema BinarySchema // Schema of the item in this collection
}

func (b *BinaryCollectionItem) Size(object any) (int, error) {
	slice, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	size := 4
	for i := 0; i < slice.Len(); i++ {
		elementSize, err := b.ItemSchema.Size(slice.Index(i).Interface())
		if err != nil {
			return -1, err
		}
		size += elementSize
	}
	return size, nil
}

func (b *BinaryCollectionItem) Write(object any, data []byte, index int) (int, error) {
	slice, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(slice.Len()))
	index += 4

	for i := 0; i < slice.Len(); i++ {
		index, err = b.ItemSchema.Write(slice.Index(i).Interface(), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryCollectionItem) Read(object any, data []byte, index int) (int, error) {
	field, err := sliceFieldOf(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	length, index, err := readLength(b.FieldName, data, index)
	if err != nil {
		return -1, err
	}

	if length == 0 {
		field.Set(reflect.Zero(field.Type()))
		return index, nil
	}

	slice := reflect.MakeSlice(field.Type(), length, length)
	for i := 0; i < length; i++ {
		index, err = b.ItemSchema.Read(slice.Index(i).Addr().Interface(), data, index)
		if err != nil {
			return -1, err
		}
	}
	field.Set(slice)

	return index, nil
}

func fieldOf(object any, fieldName string) (reflect.Value, error) {
	value := reflect.Indirect(reflect.ValueOf(object))
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("Unsupported object %v for field %s, only structs are supported", value.Kind(), fieldName)
	}

	field := value.FieldByName(fieldName)
	if !field.IsValid() {
		return reflect.Value{}, errors.Errorf("Object of type %s has no field %s", value.Type(), fieldName)
	}
	return field, nil
}

func sliceFieldOf(object any, fieldName string) (reflect.Value, error) {
	field, err := fieldOf(object, fieldName)
	if err != nil {
		return reflect.Value{}, err
	}
	if field.Kind() != reflect.Slice {
		return reflect.Value{}, errors.Errorf("Unsupported type %v of field %s. Only slices are supported.", field.Kind(), fieldName)
	}
	return field, nil
}

func readLength(fieldName string, data []byte, index int) (int, int, error) {
	if index+4 > len(data) {
		return -1, -1, errors.Errorf("Unexpected end of data reading length of %s at index %d", fieldName, index)
	}
	return int(binary.LittleEndian.Uint32(data[index:])), index + 4, nil
}

func binaryValueSize(binaryType Datatype, fieldName string, value reflect.Value) (int, error) {
	switch binaryType {
	case DatatypeByte, DatatypeBool:
		return 1, nil
	case DatatypeInt16:
		return 2, nil
	case DatatypeInt24:
		return 3, nil
	case DatatypeInt32, DatatypeFloat32:
		return 4, nil
	case DatatypeInt64, DatatypeFloat64:
		return 8, nil
	case DatatypeString:
		return 4 + len(value.String()), nil
	}
	return -1, errors.Errorf("Unsupported datatype %d for field %s", binaryType, fieldName)
}

func writeBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	size, err := binaryValueSize(binaryType, fieldName, value)
	if err != nil {
		return -1, err
	}
	if index+size > len(data) {
		return -1, errors.Errorf("Buffer too small writing field %s at index %d", fieldName, index)
	}

	switch binaryType {
	case DatatypeByte:
		data[index] = byte(getUint64FromValue(value))
	case DatatypeBool:
		data[index] = 0
		if value.Bool() {
			data[index] = 1
		}
	case DatatypeInt16:
		binary.LittleEndian.PutUint16(data[index:], uint16(getUint64FromValue(value)))
	case DatatypeInt24:
		v := getUint64FromValue(value)
		data[index] = byte(v)
		data[index+1] = byte(v >> 8)
		data[index+2] = byte(v >> 16)
	case DatatypeInt32:
		binary.LittleEndian.PutUint32(data[index:], uint32(getUint64FromValue(value)))
	case DatatypeInt64:
		binary.LittleEndian.PutUint64(data[index:], getUint64FromValue(value))
	case DatatypeFloat32:
		binary.LittleEndian.PutUint32(data[index:], math.Float32bits(float32(value.Float())))
	case DatatypeFloat64:
		binary.LittleEndian.PutUint64(data[index:], math.Float64bits(value.Float()))
	case DatatypeString:
		s := value.String()
		binary.LittleEndian.PutUint32(data[index:], uint32(len(s)))
		copy(data[index+4:], s)
	}

	return index + size, nil
}

func readBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	if binaryType == DatatypeString {
		length, start, err := readLength(fieldName, data, index)
		if err != nil {
			return -1, err
		}
		if start+length > len(data) {
			return -1, errors.Errorf("Unexpected end of data reading string %s at index %d", fieldName, index)
		}
		value.SetString(string(data[start : start+length]))
		return start + length, nil
	}

	size, err := binaryValueSize(binaryType, fieldName, value)
	if err != nil {
		return -1, err
	}
	if index+size > len(data) {
		return -1, errors.Errorf("Unexpected end of data reading field %s at index %d", fieldName, index)
	}

	d := data[index:]
	switch binaryType {
	case DatatypeByte:
		err = setIntegerValue(value, uint64(d[0]), int64(d[0]))
	case DatatypeBool:
		value.SetBool(d[0] != 0)
	case DatatypeInt16:
		v := binary.LittleEndian.Uint16(d)
		err = setIntegerValue(value, uint64(v), int64(int16(v)))
	case DatatypeInt24:
		v := uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16
		err = setIntegerValue(value, uint64(v), int64(v))
	case DatatypeInt32:
		v := binary.LittleEndian.Uint32(d)
		err = setIntegerValue(value, uint64(v), int64(int32(v)))
	case DatatypeInt64:
		v := binary.LittleEndian.Uint64(d)
		err = setIntegerValue(value, v, int64(v))
	case DatatypeFloat32:
		value.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(d))))
	case DatatypeFloat64:
		value.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(d)))
	}
	if err != nil {
		return -1, errors.Wrapf(err, "Unable to read field %s", fieldName)
	}

	return index + size, nil
}

// setIntegerValue sets the unsigned or signed interpretation of the read bits depending on the kind of the field.
func setIntegerValue(value reflect.Value, unsigned uint64, signed int64) error {
	switch value.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value.SetUint(unsigned)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value.SetInt(signed)
	default:
		return errors.Errorf("Unsupported kind %s for integer value", value.Kind())
	}
	return nil
}

func getUint64FromValue(value reflect.Value) uint64 {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Uint()
	}
	panic("Unsupported value type " + value.Kind().String() + " to convert to uint.")
}
