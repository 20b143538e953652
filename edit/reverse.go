package edit

import (
	"osmedit/graph"
	"osmedit/osm"
	"regexp"
	"slices"
	"strings"
)

var (
	directionWords = map[string]string{
		"left":     "right",
		"right":    "left",
		"forward":  "backward",
		"backward": "forward",
		"up":       "down",
		"down":     "up",
	}
	compassWords = map[string]string{
		"north": "south",
		"south": "north",
		"east":  "west",
		"west":  "east",
	}
	compassLetters = map[rune]rune{
		'N': 'S',
		'S': 'N',
		'E': 'W',
		'W': 'E',
	}
	signedNumberRegex = regexp.MustCompile(`^(-?)(\d+(\.\d+)?)(%|°)?$`)
	compassRegex      = regexp.MustCompile(`^[NESW]{1,3}$`)
)

// CanReverse plans reversing the direction of the way including its direction dependent tags and roles.
func CanReverse(store *graph.Store, way *osm.Way) (*Action, error) {
	if way.Deleted {
		return nil, refuse(KindInvalid, "Way %d is deleted", way.ID)
	}
	if len(way.Nodes) < 2 {
		return nil, refuse(KindNoChange, "Way %d has no direction", way.ID)
	}

	nodes := store.NodesOfWay(way)
	slices.Reverse(nodes)
	tags := reverseTags(way.Tags)

	type roleChange struct {
		relation *osm.Relation
		position int
		member   osm.Member
	}
	var roleChanges []roleChange
	for _, relation := range store.ParentRelations(way) {
		for _, position := range relation.MemberIndexes(way.GetExtendedID()) {
			member := relation.Members[position]
			role := reverseRole(member.Role)
			if role != member.Role {
				member.Role = role
				roleChanges = append(roleChanges, roleChange{relation: relation, position: position, member: member})
			}
		}
	}

	return newAction(store, "reverse", func() osm.Object {
		store.ReplaceWayNodes(way, nodes)
		if !tags.Equal(way.Tags) {
			store.SetTags(way, tags)
		}
		for _, change := range roleChanges {
			store.SetMember(change.relation, change.position, change.member)
		}
		return way
	}, way), nil
}

// reverseTags returns the tags as they are for the reversed way.
func reverseTags(tags osm.Tags) osm.Tags {
	if tags == nil {
		return nil
	}
	reversed := osm.Tags{}
	for key, value := range tags {
		reversed[reverseKey(key)] = reverseValue(key, value)
	}
	return reversed
}

func reverseKey(key string) string {
	parts := strings.Split(key, ":")
	for i := 1; i < len(parts); i++ {
		if replacement, ok := directionWords[parts[i]]; ok && parts[i] != "up" && parts[i] != "down" {
			parts[i] = replacement
		}
	}
	return strings.Join(parts, ":")
}

func reverseValue(key string, value string) string {
	switch {
	case key == "oneway":
		switch value {
		case "yes", "true", "1":
			return "-1"
		case "-1":
			return "yes"
		}
		return value
	case key == "incline" || strings.HasPrefix(key, "incline:"):
		if match := signedNumberRegex.FindStringSubmatch(value); match != nil {
			if match[2] == "0" {
				return value
			}
			if match[1] == "-" {
				return match[2] + match[4]
			}
			return "-" + match[2] + match[4]
		}
	case key == "direction" || strings.HasSuffix(key, ":direction"):
		if compassRegex.MatchString(value) {
			return reverseCompass(value)
		}
	}

	if replacement, ok := directionWords[value]; ok {
		return replacement
	}
	return value
}

func reverseCompass(value string) string {
	var result strings.Builder
	for _, letter := range value {
		result.WriteRune(compassLetters[letter])
	}
	return result.String()
}

func reverseRole(role string) string {
	if replacement, ok := directionWords[role]; ok && (role == "forward" || role == "backward") {
		return replacement
	}
	if replacement, ok := compassWords[role]; ok {
		return replacement
	}
	return role
}
