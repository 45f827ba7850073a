package builtin

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

type Func func(args []string) any

// Registry maps faker descriptors ("internet.email", "random.uuid") to
// generators. The set is fixed at construction.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	// name
	r.funcs["name.firstName"] = func(_ []string) any { return gofakeit.FirstName() }
	r.funcs["name.lastName"] = func(_ []string) any { return gofakeit.LastName() }
	r.funcs["name.findName"] = func(_ []string) any { return gofakeit.Name() }
	r.funcs["name.jobTitle"] = func(_ []string) any { return gofakeit.JobTitle() }

	// internet
	r.funcs["internet.email"] = func(_ []string) any { return gofakeit.Email() }
	r.funcs["internet.exampleEmail"] = funcExampleEmail
	r.funcs["internet.userName"] = func(_ []string) any { return gofakeit.Username() }
	r.funcs["internet.password"] = funcPassword
	r.funcs["internet.url"] = func(_ []string) any { return gofakeit.URL() }
	r.funcs["internet.domainName"] = func(_ []string) any { return gofakeit.DomainName() }
	r.funcs["internet.ip"] = func(_ []string) any { return gofakeit.IPv4Address() }
	r.funcs["internet.ipv6"] = func(_ []string) any { return gofakeit.IPv6Address() }
	r.funcs["internet.mac"] = func(_ []string) any { return gofakeit.MacAddress() }
	r.funcs["internet.userAgent"] = func(_ []string) any { return gofakeit.UserAgent() }
	r.funcs["internet.color"] = func(_ []string) any { return gofakeit.HexColor() }

	// address
	r.funcs["address.city"] = func(_ []string) any { return gofakeit.City() }
	r.funcs["address.country"] = func(_ []string) any { return gofakeit.Country() }
	r.funcs["address.state"] = func(_ []string) any { return gofakeit.State() }
	r.funcs["address.streetAddress"] = func(_ []string) any { return gofakeit.Street() }
	r.funcs["address.zipCode"] = func(_ []string) any { return gofakeit.Zip() }

	// company, commerce, phone, lorem
	r.funcs["company.companyName"] = func(_ []string) any { return gofakeit.Company() }
	r.funcs["commerce.productName"] = func(_ []string) any { return gofakeit.ProductName() }
	r.funcs["commerce.color"] = func(_ []string) any { return gofakeit.Color() }
	r.funcs["phone.phoneNumber"] = func(_ []string) any { return gofakeit.Phone() }
	r.funcs["lorem.word"] = func(_ []string) any { return gofakeit.Word() }
	r.funcs["lorem.sentence"] = funcSentence

	// random and datatype
	r.funcs["random.uuid"] = funcUUID
	r.funcs["datatype.uuid"] = funcUUID
	r.funcs["random.number"] = funcNumber
	r.funcs["datatype.number"] = funcNumber
	r.funcs["random.boolean"] = func(_ []string) any { return gofakeit.Bool() }
	r.funcs["datatype.boolean"] = func(_ []string) any { return gofakeit.Bool() }
	r.funcs["random.alphaNumeric"] = funcAlphaNumeric
	r.funcs["random.word"] = func(_ []string) any { return gofakeit.Word() }

	// date
	r.funcs["date.past"] = func(_ []string) any {
		return time.Now().UTC().Add(-time.Duration(rand.Int63n(int64(365 * 24 * time.Hour)))).Format(time.RFC3339)
	}
	r.funcs["date.future"] = func(_ []string) any {
		return time.Now().UTC().Add(time.Duration(rand.Int63n(int64(365 * 24 * time.Hour)))).Format(time.RFC3339)
	}
	r.funcs["date.recent"] = func(_ []string) any { return time.Now().UTC().Format(time.RFC3339) }
	r.funcs["date.timestamp"] = func(_ []string) any { return time.Now().Unix() }
}

// Names returns the registered descriptors.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^([\w.]+)(?:\((.*)\))?$`)

// Fake generates a value for a descriptor such as "internet.email" or
// "random.number(1, 10)". Mustache braces around the descriptor are accepted.
func (r *Registry) Fake(descriptor string) (any, error) {
	expr := strings.TrimSpace(descriptor)
	expr = strings.TrimPrefix(expr, "{{")
	expr = strings.TrimSuffix(expr, "}}")
	expr = strings.TrimSpace(expr)

	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, fmt.Errorf("invalid faker descriptor %q", descriptor)
	}

	name := matches[1]
	argsStr := matches[2]

	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("unknown faker descriptor %q", name)
	}

	var args []string
	if argsStr != "" {
		args = parseArgs(argsStr)
	}

	return fn(args), nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func funcUUID(_ []string) any {
	return uuid.New().String()
}

func funcNumber(args []string) any {
	min, max := 0, 99999
	switch len(args) {
	case 1:
		if v, err := strconv.Atoi(args[0]); err == nil {
			max = v
		}
	case 2:
		if v, err := strconv.Atoi(args[0]); err == nil {
			min = v
		}
		if v, err := strconv.Atoi(args[1]); err == nil {
			max = v
		}
	}
	if max < min {
		min, max = max, min
	}
	return gofakeit.Number(min, max)
}

func funcPassword(args []string) any {
	length := 15
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			length = v
		}
	}
	return gofakeit.Password(true, true, true, false, false, length)
}

func funcSentence(args []string) any {
	words := 6
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			words = v
		}
	}
	return gofakeit.Sentence(words)
}

func funcExampleEmail(_ []string) any {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@example.com", user)
}

func funcAlphaNumeric(args []string) any {
	length := 1
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			length = v
		}
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyz0123456789")
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
