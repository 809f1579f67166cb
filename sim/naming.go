package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// NameMustBeValid panics if a component name does not follow the naming
// convention. A name is a dot-separated hierarchy such as "Board.Master[1]".
// Every element starts with a capital letter, contains no underscores,
// quotes or dashes, and may carry one square-bracket index.
func NameMustBeValid(name string) {
	for _, elem := range strings.Split(name, ".") {
		if err := checkNameElem(elem); err != nil {
			panic(fmt.Sprintf("name %q is not valid: %s", name, err))
		}
	}
}

func checkNameElem(elem string) error {
	base := elem

	if open := strings.IndexByte(elem, '['); open >= 0 {
		if !strings.HasSuffix(elem, "]") {
			return fmt.Errorf("unmatched bracket in %q", elem)
		}

		if _, err := strconv.Atoi(elem[open+1 : len(elem)-1]); err != nil {
			return fmt.Errorf("index of %q must be an integer", elem)
		}

		base = elem[:open]
	} else if strings.ContainsRune(elem, ']') {
		return fmt.Errorf("unmatched bracket in %q", elem)
	}

	if base == "" {
		return fmt.Errorf("empty element")
	}

	if strings.ContainsAny(base, "_\"'-") {
		return fmt.Errorf("element %q has an invalid character", base)
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return fmt.Errorf("element %q must start with a capital letter", base)
	}

	return nil
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
