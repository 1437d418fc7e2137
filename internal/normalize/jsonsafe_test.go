package normalize

import (
	"encoding/json"
	"math"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type opaqueHandle struct {
	hidden string
}

func (opaqueHandle) String() string { return "opaque-handle" }

type linkedNode struct {
	Name string      `json:"name"`
	Next *linkedNode `json:"next"`
}

type sdkThread struct {
	Visible string
	payload map[string]any
}

func (t *sdkThread) RawPayload() any { return t.payload }

type panickyPayload struct {
	Label string `json:"label"`
}

func (*panickyPayload) RawPayload() any { panic("boom") }

type stampedEvent struct {
	Kind string
	At   time.Time
	Meta map[string]any `json:"meta,omitempty"`
	Skip string         `json:"-"`
	note string
}

type sealedSession struct {
	state map[string]any
}

type runStep struct {
	Detail stepDetail
	Index  int
}

type stepDetail struct {
	Tokens int
}

func TestToJSONSafeSelfReferentialMap(t *testing.T) {
	t.Parallel()

	m := NewMap()
	m.Set("id", "thread_1")
	m.Set("self", m)

	if got := encode(t, ToJSONSafe(m)); got != `{"id":"thread_1","self":"<recursion>"}` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeSelfReferentialGoMap(t *testing.T) {
	t.Parallel()

	m := map[string]any{"id": "x"}
	m["loop"] = m
	if got := encode(t, ToJSONSafe(m)); got != `{"id":"x","loop":"<recursion>"}` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeSelfReferentialSlice(t *testing.T) {
	t.Parallel()

	items := make([]any, 2)
	items[0] = "first"
	items[1] = items
	if got := encode(t, ToJSONSafe(items)); got != `["first","<recursion>"]` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafePointerCycle(t *testing.T) {
	t.Parallel()

	a := &linkedNode{Name: "a"}
	b := &linkedNode{Name: "b", Next: a}
	a.Next = b
	got := encode(t, ToJSONSafe(a))
	if got != `{"name":"a","next":{"name":"b","next":"<recursion>"}}` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeMarksRepeatedReference(t *testing.T) {
	t.Parallel()

	shared := NewMap()
	shared.Set("k", "v")
	got := encode(t, ToJSONSafe([]any{shared, shared}))
	if got != `[{"k":"v"},"<recursion>"]` {
		t.Fatalf("unexpected output: %s", got)
	}

	// equal but distinct values are not conflated
	first := NewMap()
	first.Set("k", "v")
	second := NewMap()
	second.Set("k", "v")
	if got := encode(t, ToJSONSafe([]any{first, second})); got != `[{"k":"v"},{"k":"v"}]` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeStringifiesKeys(t *testing.T) {
	t.Parallel()

	numeric := map[int]string{2: "b", 1: "a", 10: "c"}
	if got := encode(t, ToJSONSafe(numeric)); got != `{"1":"a","10":"c","2":"b"}` {
		t.Fatalf("unexpected output: %s", got)
	}

	mixed := map[any]any{true: 1, 3.5: []any{uint8(7)}, nil: "none"}
	if got := encode(t, ToJSONSafe(mixed)); got != `{"3.5":[7],"None":"none","true":1}` {
		t.Fatalf("unexpected output: %s", got)
	}

	ordered := NewMap()
	ordered.Set("z", map[string]int{"b": 2, "a": 1})
	ordered.Set("a", nil)
	if got := encode(t, ToJSONSafe(ordered)); got != `{"z":{"a":1,"b":2},"a":null}` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeOpaqueFallsBackToString(t *testing.T) {
	t.Parallel()

	if got := ToJSONSafe(opaqueHandle{hidden: "x"}); got != "opaque-handle" {
		t.Fatalf("expected string form, got %#v", got)
	}
	if got, ok := ToJSONSafe(make(chan int)).(string); !ok || got == "" {
		t.Fatalf("expected string for channel, got %#v", got)
	}
	if got := ToJSONSafe(complex(1, 2)); got != "(1+2i)" {
		t.Fatalf("unexpected complex rendering: %#v", got)
	}
}

func TestToJSONSafeDoesNotWalkPrivateState(t *testing.T) {
	t.Parallel()

	state := map[string]any{}
	state["self"] = state
	if got := ToJSONSafe(sealedSession{state: state}); got != "<normalize.sealedSession>" {
		t.Fatalf("expected type form, got %#v", got)
	}
	got, ok := ToJSONSafe(&sealedSession{state: state}).(string)
	if !ok || !strings.HasPrefix(got, "<*normalize.sealedSession at 0x") {
		t.Fatalf("expected pointer type form, got %#v", got)
	}

	keyed := map[*sealedSession]string{{state: state}: "v"}
	if got := encode(t, ToJSONSafe(keyed)); got != `{"<normalize.sealedSession>":"v"}` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeKeepsFieldAddressDistinct(t *testing.T) {
	t.Parallel()

	step := &runStep{Detail: stepDetail{Tokens: 1}, Index: 2}
	got := encode(t, ToJSONSafe([]any{step, &step.Detail}))
	want := `[{"Detail":{"Tokens":1},"Index":2},{"Tokens":1}]`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestToJSONSafeUsesTextMarshalerForByteSlices(t *testing.T) {
	t.Parallel()

	input := []any{net.IPv4(127, 0, 0, 1).To4(), net.ParseIP("::1")}
	if got := encode(t, ToJSONSafe(input)); got != `["127.0.0.1","::1"]` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestToJSONSafeUsesRawPayload(t *testing.T) {
	t.Parallel()

	thread := &sdkThread{
		Visible: "ignored",
		payload: map[string]any{"id": "thread_1", "object": "thread"},
	}
	if got := encode(t, ToJSONSafe(thread)); got != `{"id":"thread_1","object":"thread"}` {
		t.Fatalf("unexpected output: %s", got)
	}

	empty := &sdkThread{Visible: "shown"}
	if got := encode(t, ToJSONSafe(empty)); got != `{"Visible":"shown"}` {
		t.Fatalf("expected exported fields when payload is absent, got %s", got)
	}

	if got := encode(t, ToJSONSafe(&panickyPayload{Label: "safe"})); got != `{"label":"safe"}` {
		t.Fatalf("expected panicking payload to be skipped, got %s", got)
	}
}

func TestToJSONSafeStructFieldsAndTimestamps(t *testing.T) {
	t.Parallel()

	event := stampedEvent{
		Kind: "created",
		At:   time.Date(2024, 1, 1, 1, 0, 0, 500, time.FixedZone("x", 3600)),
		Meta: map[string]any{"when": time.Unix(0, 0)},
		Skip: "nope",
		note: "private",
	}
	got := encode(t, ToJSONSafe(event))
	want := `{"Kind":"created","At":"2024-01-01T00:00:00Z","meta":{"when":"1970-01-01T00:00:00Z"}}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestToJSONSafeScalars(t *testing.T) {
	t.Parallel()

	type status string
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	text := "pointed"
	input := []any{
		nil,
		status("active"),
		math.NaN(),
		math.Inf(-1),
		float32(1.5),
		json.Number("12"),
		json.Number("bogus"),
		[]byte("bytes"),
		[]byte{0xff, 0xfe},
		json.RawMessage(`{"nested":[1]}`),
		id,
		&text,
		[2]int{1, 2},
	}
	got := encode(t, ToJSONSafe(input))
	want := `[null,"active","NaN","-Inf",1.5,12,"bogus","bytes","//4=",{"nested":[1]},"6ba7b810-9dad-11d1-80b4-00c04fd430c8","pointed",[1,2]]`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestToJSONSafeIsTotal(t *testing.T) {
	t.Parallel()

	var nilPointer *linkedNode
	var nilMap map[string]any
	var nilFunc func()
	inputs := []any{
		nilPointer,
		nilMap,
		nilFunc,
		func() {},
		struct{}{},
		&struct{ inner int }{inner: 1},
		[]any{map[any]any{[2]int{1, 2}: "array key"}},
		new(any),
	}
	for _, input := range inputs {
		normalized := ToJSONSafe(input)
		if _, err := json.Marshal(normalized); err != nil {
			t.Fatalf("expected json-safe output for %#v, got %v (%v)", input, normalized, err)
		}
	}
}

func TestToJSONSafeDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	source := NewMap()
	source.Set("when", time.Unix(10, 0))
	_ = ToJSONSafe(source)
	value, _ := source.Get("when")
	if _, ok := value.(time.Time); !ok {
		t.Fatalf("expected source untouched, got %T", value)
	}
}
