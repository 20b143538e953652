package util

import (
	"fmt"
	"github.com/hauke96/sigolo/v2"
	"math"
	"reflect"
	"strings"
	"testing"
)

func AssertEqual(t *testing.T, expected any, actual any) {
	expectedString, expectedIsString := expected.(string)
	actualString, actualIsString := actual.(string)

	if reflect.DeepEqual(expected, actual) {
		return
	}

	if expectedIsString && actualIsString {
		assertEqualStrings(t, expectedString, actualString)
		return
	}

	sigolo.Errorb(1, "Expect to be equal.\nExpected: %+v\n----------\nActual  : %+v\n", expected, actual)
	t.Fail()
}

func AssertNotEqual(t *testing.T, notExpected any, actual any) {
	if reflect.DeepEqual(notExpected, actual) {
		sigolo.Errorb(1, "Expect NOT to be equal but both were: %+v", actual)
		t.Fail()
	}
}

func AssertApprox[T float32 | float64](t *testing.T, expected T, actual T, accuracy T) {
	if math.Abs(float64(expected-actual)) > float64(accuracy) {
		sigolo.Errorb(1, "Expected %v but got %v (allowed deviation %v)", expected, actual, accuracy)
		t.Fail()
	}
}

func assertEqualStrings(t *testing.T, expected string, actual string) {
	expectedLines := strings.Split(strings.ReplaceAll(expected, "\n", "\\n\n"), "\n")
	actualLines := strings.Split(strings.ReplaceAll(actual, "\n", "\\n\n"), "\n")

	sigolo.Errorb(2, "Expect to be equal.\n|   | %-50s | %-50s |", "Expected", "Actual")
	fmt.Printf("|%s|\n", strings.Repeat("-", 109))

	lineCount := max(len(expectedLines), len(actualLines))
	for i := 0; i < lineCount; i++ {
		expectedLine := ""
		if i < len(expectedLines) {
			expectedLine = expectedLines[i]
		}
		actualLine := ""
		if i < len(actualLines) {
			actualLine = actualLines[i]
		}

		changeMark := " "
		if actualLine != expectedLine {
			changeMark = "*"
		}

		fmt.Printf("| %s | %-50s | %-50s |\n", changeMark, "\""+expectedLine+"\"", "\""+actualLine+"\"")
	}

	t.Fail()
}

func AssertNil(t *testing.T, value any) {
	if value != nil && !isNilValue(value) {
		sigolo.Errorb(1, "Expect to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

func AssertNotNil(t *testing.T, value any) {
	if value == nil || isNilValue(value) {
		sigolo.Errorb(1, "Expect NOT to be 'nil' but was: %#v", value)
		t.Fail()
	}
}

// isNilValue also catches typed nil pointers and nil slices/maps wrapped in an interface.
func isNilValue(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func AssertError(t *testing.T, expectedMessage string, err error) {
	if err == nil {
		sigolo.Errorb(1, "Expected error with message: %s\nBut got no error", expectedMessage)
		t.Fail()
		return
	}
	if expectedMessage != err.Error() {
		sigolo.Errorb(1, "Expected message: %s\nActual error message: %s", expectedMessage, err.Error())
		t.Fail()
	}
}

func AssertErrorContains(t *testing.T, expectedPart string, err error) {
	if err == nil {
		sigolo.Errorb(1, "Expected error containing: %s\nBut got no error", expectedPart)
		t.Fail()
		return
	}
	if !strings.Contains(err.Error(), expectedPart) {
		sigolo.Errorb(1, "Expected error containing: %s\nActual error message: %s", expectedPart, err.Error())
		t.Fail()
	}
}

func AssertTrue(t *testing.T, b bool) {
	if !b {
		sigolo.Errorb(1, "Expected true but got false")
		t.Fail()
	}
}

func AssertFalse(t *testing.T, b bool) {
	if b {
		sigolo.Errorb(1, "Expected false but got true")
		t.Fail()
	}
}

func AssertLen[T any](t *testing.T, expectedLength int, items []T) {
	if len(items) != expectedLength {
		sigolo.Errorb(1, "Expected %d items but got %d: %+v", expectedLength, len(items), items)
		t.Fail()
	}
}

func AssertContains[T comparable](t *testing.T, expected T, items []T) {
	for _, item := range items {
		if item == expected {
			return
		}
	}
	sigolo.Errorb(1, "Expected %+v to be in %+v", expected, items)
	t.Fail()
}
