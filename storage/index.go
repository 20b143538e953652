package storage

import (
	"github.com/pkg/errors"
	"osmedit/osm"
	"sort"
)

// TagIndex maps tag keys and values to small integers so that every tag of a snapshot is stored as two numbers.
type TagIndex struct {
	keyMap   []string   // The index value of a key is the position in this array.
	valueMap [][]string // Array index is here the key index. I.e. valueMap[key] contains the list of value strings.

	keyIndices   map[string]int
	valueIndices []map[string]int
}

func NewTagIndex(keyMap []string, valueMap [][]string) *TagIndex {
	return &TagIndex{
		keyMap:   keyMap,
		valueMap: valueMap,
	}
}

// newTagIndexFor creates an index of all tags of the given objects. Keys and values are sorted so that equal stores
// produce equal snapshots.
func newTagIndexFor(objects []osm.Object) *TagIndex {
	values := map[string]map[string]bool{}
	for _, obj := range objects {
		for key, value := range obj.GetTags() {
			if values[key] == nil {
				values[key] = map[string]bool{}
			}
			values[key][value] = true
		}
	}

	var keyMap []string
	for key := range values {
		keyMap = append(keyMap, key)
	}
	sort.Strings(keyMap)

	valueMap := make([][]string, len(keyMap))
	for i, key := range keyMap {
		for value := range values[key] {
			valueMap[i] = append(valueMap[i], value)
		}
		sort.Strings(valueMap[i])
	}

	return NewTagIndex(keyMap, valueMap)
}

func (i *TagIndex) buildLookup() {
	if i.keyIndices != nil {
		return
	}
	i.keyIndices = map[string]int{}
	i.valueIndices = make([]map[string]int, len(i.keyMap))
	for keyIndex, key := range i.keyMap {
		i.keyIndices[key] = keyIndex
		i.valueIndices[keyIndex] = map[string]int{}
		if keyIndex < len(i.valueMap) {
			for valueIndex, value := range i.valueMap[keyIndex] {
				i.valueIndices[keyIndex][value] = valueIndex
			}
		}
	}
}

// GetIndexFromKey returns the numerical index representation of the given key string and -1 if the key doesn't exist.
func (i *TagIndex) GetIndexFromKey(key string) int {
	i.buildLookup()
	if keyIndex, ok := i.keyIndices[key]; ok {
		return keyIndex
	}
	return -1
}

// GetIndicesFromTag returns the key and value index of the tag. Both are -1 if the tag isn't part of the index.
func (i *TagIndex) GetIndicesFromTag(key string, value string) (int, int) {
	keyIndex := i.GetIndexFromKey(key)
	if keyIndex == -1 {
		return -1, -1
	}
	valueIndex, ok := i.valueIndices[keyIndex][value]
	if !ok {
		return -1, -1
	}
	return keyIndex, valueIndex
}

// GetKeyFromIndex returns the string representation of the given key index.
func (i *TagIndex) GetKeyFromIndex(key int) string {
	return i.keyMap[key]
}

// GetValueForKey returns the string representation of the given key-value indices and "" is the value doesn't exist.
func (i *TagIndex) GetValueForKey(key int, value int) string {
	if key < 0 || key >= len(i.valueMap) {
		return ""
	}
	valueMap := i.valueMap[key]
	if value < 0 || value >= len(valueMap) {
		return ""
	}
	return valueMap[value]
}

// encode turns the tags into index pairs sorted by key index.
func (i *TagIndex) encode(tags osm.Tags) ([]tagDao, error) {
	result := make([]tagDao, 0, len(tags))
	for key, value := range tags {
		keyIndex, valueIndex := i.GetIndicesFromTag(key, value)
		if keyIndex == -1 {
			return nil, errors.Errorf("Tag %s=%s is not part of the tag index", key, value)
		}
		result = append(result, tagDao{Key: keyIndex, Value: valueIndex})
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].Key < result[b].Key
	})
	return result, nil
}

func (i *TagIndex) decode(tags []tagDao) (osm.Tags, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	result := osm.Tags{}
	for _, tag := range tags {
		if tag.Key < 0 || tag.Key >= len(i.keyMap) {
			return nil, errors.Errorf("Key index %d out of range", tag.Key)
		}
		if tag.Value < 0 || tag.Key >= len(i.valueMap) || tag.Value >= len(i.valueMap[tag.Key]) {
			return nil, errors.Errorf("Value index %d of key %s out of range", tag.Value, i.keyMap[tag.Key])
		}
		result[i.keyMap[tag.Key]] = i.valueMap[tag.Key][tag.Value]
	}
	return result, nil
}
