package rtable

import (
	"reflect"
	"testing"

	"github.com/rbatis-go/rbatis/rvalue"
	"github.com/stretchr/testify/require"
)

type initerTest struct {
	S string `db:"s"`
	I int8   `db:"i"`
}

type stringTest struct {
	S string `db:"s"`
}

// flag is a minimal encoding.TextUnmarshaler stand-in for the teacher's
// types.Bool, exercising the TextUnmarshaler branch without the dependency.
type flag struct {
	set bool
}

func (f *flag) UnmarshalText(text []byte) error {
	switch string(text) {
	case "1":
		f.set = true
		return nil
	case "0":
		f.set = false
		return nil
	default:
		return errInvalidFlag
	}
}

var errInvalidFlag = &flagError{}

type flagError struct{}

func (*flagError) Error() string { return "invalid flag" }

func testIniter(p any) {
	pIniterTest, ok := p.(*initerTest)
	if !ok {
		panic("p is not of type initerTest")
	}
	pIniterTest.I = 42
}

func row(pairs ...any) map[string]rvalue.Value {
	m := make(map[string]rvalue.Value, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(string)] = rvalue.From(pairs[i+1])
	}
	return m
}

func TestMakeMapStructifierEmpty(t *testing.T) {
	ms := MakeMapStructifier(reflect.TypeOf(struct{}{}), "", nil)
	require.NotNil(t, ms)

	actual, err := ms(nil)
	require.NoError(t, err)
	require.Equal(t, &struct{}{}, actual)
}

func TestMakeMapStructifierUnsupportedPanics(t *testing.T) {
	require.Panics(t, func() {
		MakeMapStructifier(reflect.TypeOf(struct {
			S struct{} `db:"s"`
		}{}), "db", nil)
	})
}

func TestMakeMapStructifierAnonymousEmbedPromoted(t *testing.T) {
	type inner struct {
		S string `db:"s"`
	}
	type outer struct {
		inner
	}

	ms := MakeMapStructifier(reflect.TypeOf(outer{}), "db", nil)
	actual, err := ms(row("s", "foobar"))
	require.NoError(t, err)
	require.Equal(t, &outer{inner: inner{S: "foobar"}}, actual)
}

func TestMakeMapStructifierSubtests(t *testing.T) {
	subtests := []struct {
		name   string
		initer func(any)
		input  map[string]rvalue.Value
		errs   bool
		output any
	}{
		{
			name:   "initer_only",
			initer: testIniter,
			output: &initerTest{I: 42},
		},
		{
			name:   "initer_coexists",
			initer: testIniter,
			input:  row("s", "foobar"),
			output: &initerTest{S: "foobar", I: 42},
		},
		{
			name:   "initer_overwritten",
			initer: testIniter,
			input:  row("s", "foobar", "i", int8(23)),
			output: &initerTest{S: "foobar", I: 23},
		},
		{
			name:  "unexported",
			input: row("s", "foobar"),
			output: &struct {
				s string `db:"s"`
			}{},
		},
		{
			name:  "no_tag",
			input: row("s", "foobar"),
			output: &struct {
				S string
			}{},
		},
		{
			name:  "empty_tag",
			input: row("s", "foobar"),
			output: &struct {
				S string `db:""`
			}{},
		},
		{
			name:  "dash_tag",
			input: row("s", "foobar"),
			output: &struct {
				S string `db:"-"`
			}{},
		},
		{name: "missing_map", output: &stringTest{}},
		{
			name:  "string",
			input: row("s", "foobar"),
			output: &stringTest{S: "foobar"},
		},
		{
			name:  "pstring",
			input: row("s", "foobar"),
			output: &struct {
				S *string `db:"s"`
			}{S: func(s string) *string { return &s }("foobar")},
		},
		{
			name:  "pstring_null",
			input: row("s", nil),
			output: &struct {
				S *string `db:"s"`
			}{},
		},
		{
			name:  "uint8",
			input: row("u", "255"),
			output: &struct {
				U uint8 `db:"u"`
			}{U: 255},
		},
		{
			name:  "uint8_error",
			input: row("u", "256"),
			errs:  true,
			output: &struct {
				U uint8 `db:"u"`
			}{},
		},
		{
			name:  "int8",
			input: row("i", "-128"),
			output: &struct {
				I int8 `db:"i"`
			}{I: -128},
		},
		{
			name:  "int8_error",
			input: row("i", "-129"),
			errs:  true,
			output: &struct {
				I int8 `db:"i"`
			}{},
		},
		{
			name:  "float64",
			input: row("f", "3.5"),
			output: &struct {
				F float64 `db:"f"`
			}{F: 3.5},
		},
		{
			name:  "bool",
			input: row("b", true),
			output: &struct {
				B bool `db:"b"`
			}{B: true},
		},
		{
			name:  "bool_error",
			input: row("b", "not-a-bool"),
			errs:  true,
			output: &struct {
				B bool `db:"b"`
			}{},
		},
		{
			name:  "TextUnmarshaler",
			input: row("flag", "1"),
			output: &struct {
				Flag flag `db:"flag"`
			}{flag{set: true}},
		},
		{
			name:  "TextUnmarshaler_error",
			input: row("flag", "INVALID"),
			errs:  true,
			output: &struct {
				Flag flag `db:"flag"`
			}{},
		},
	}

	for _, st := range subtests {
		t.Run(st.name, func(t *testing.T) {
			outType := reflect.TypeOf(st.output).Elem()
			ms := MakeMapStructifier(outType, "db", st.initer)

			actual, err := ms(st.input)
			if st.errs {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, st.output, actual)
		})
	}
}

func TestMakeMapStructifierInlineEmbedded(t *testing.T) {
	type inner struct {
		Name string `db:"name"`
	}
	type outer struct {
		inner `db:",inline"`
		Age   int `db:"age"`
	}

	ms := MakeMapStructifier(reflect.TypeOf(outer{}), "db", nil)
	actual, err := ms(row("name", "bob", "age", 30))
	require.NoError(t, err)
	require.Equal(t, &outer{inner: inner{Name: "bob"}, Age: 30}, actual)
}
