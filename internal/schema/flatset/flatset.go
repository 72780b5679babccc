// Package flatset is the reference schema.Parser used when no richer
// schema-language implementation is mounted. It does not validate YANG
// grammar; it scans each module source for "list NAME { ... key \"K1 K2\" ...
// }" statements well enough to answer schema.Set.IsList, which is all the
// differential edit engine and device-sync binding step actually need
// (spec.md §1: the schema-language parser proper is explicitly out of
// scope for the core).
package flatset

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/meridian-net/meridian/internal/schema"
)

// Set is the flatset reference implementation of schema.Set.
type Set struct {
	mount   string
	modules []schema.ModuleRef
	lists   map[string][]string // element name -> declared key leaf names
}

var _ schema.Set = (*Set)(nil)

func (s *Set) Mount() string                { return s.mount }
func (s *Set) Modules() []schema.ModuleRef  { return s.modules }

func (s *Set) IsList(elementName string) (keys []string, ok bool) {
	k, ok := s.lists[elementName]
	return k, ok
}

// Parser implements schema.Parser by line-scanning module bodies for "list"
// and "key" statements.
type Parser struct{}

var _ schema.Parser = Parser{}

func (Parser) Parse(_ context.Context, mount string, sources map[schema.ModuleRef][]byte) (schema.Set, error) {
	set := &Set{mount: mount, lists: map[string][]string{}}
	for ref, body := range sources {
		set.modules = append(set.modules, ref)
		if err := scanModule(body, set.lists); err != nil {
			return nil, fmt.Errorf("schema: module %s: %w", ref, err)
		}
	}
	return set, nil
}

// scanModule walks body line by line tracking the innermost "list NAME {"
// block and records the keys declared by its "key \"...\";" statement.
func scanModule(body []byte, lists map[string][]string) error {
	scanner := bufio.NewScanner(strings.NewReader(string(body)))
	var stack []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "list "):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				stack = append(stack, fields[1])
			}
		case strings.HasPrefix(line, "key "):
			if len(stack) == 0 {
				continue
			}
			name := stack[len(stack)-1]
			if name == "" {
				continue
			}
			keyLine := strings.Trim(strings.TrimPrefix(line, "key"), " ;")
			keyLine = strings.Trim(keyLine, `"`)
			lists[name] = strings.Fields(keyLine)
		case strings.HasSuffix(line, "{"):
			// Any other block; tracked so its "}" does not close a list.
			stack = append(stack, "")
		case strings.HasSuffix(line, "}") && len(stack) > 0:
			stack = stack[:len(stack)-1]
		}
	}
	return scanner.Err()
}
