package labels

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestToDocuments(t *testing.T) {
	all := buttonLabels()
	Connect(all)

	docs := ToDocuments(all)
	require.Len(t, docs, 6)

	cause := docs[0]
	assert.Equal(t, "L1", cause.ID)
	assert.Equal(t, []string{"L2", "L3"}, cause.Children)
	assert.Nil(t, cause.Predecessor)
	require.NotNil(t, cause.Successor)
	assert.Equal(t, NeighborDocument{ID: "L4", Junctor: None}, *cause.Successor)

	variable := docs[1]
	require.NotNil(t, variable.Parent)
	assert.Equal(t, "L1", *variable.Parent)
}

func TestDocument_JSON(t *testing.T) {
	parent := "L2"
	sub := Document{ID: "L1", Name: Variable, Begin: 10, End: 15, Parent: &parent}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"L1","name":"Variable","begin":10,"end":15,"parent":"L2"}`, string(data))

	event := Document{ID: "L1", Name: "Cause1", Begin: 0, End: 30, Successor: &NeighborDocument{ID: "L2"}}
	data, err = json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"L1","name":"Cause1","begin":0,"end":30,"successor":{"id":"L2","junctor":null}}`, string(data))

	var back Document
	require.NoError(t, json.Unmarshal([]byte(`{"id":"L1","name":"Cause1","begin":0,"end":30,"successor":{"id":"L2","junctor":"POR"}}`), &back))
	assert.Equal(t, POr, back.Successor.Junctor)

	err = json.Unmarshal([]byte(`{"id":"L1","name":"Cause1","begin":0,"end":30,"successor":{"id":"L2","junctor":"XOR"}}`), &back)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDocument_YAML(t *testing.T) {
	in := `
- id: L1
  name: Cause1
  begin: 3
  end: 24
  children: [L2]
- id: L2
  name: Variable
  begin: 3
  end: 13
  parent: L1
`
	var docs []Document
	require.NoError(t, yaml.Unmarshal([]byte(in), &docs))

	all, err := FromDocuments(docs)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Same(t, all[0], all[1].(*SubLabel).Parent)
}

func TestJunctor_YAML(t *testing.T) {
	in := `
- {id: L1, junctor: OR}
- {id: L2, junctor: null}
- {id: L3}
`
	var neighbors []NeighborDocument
	require.NoError(t, yaml.Unmarshal([]byte(in), &neighbors))
	assert.Equal(t, Or, neighbors[0].Junctor)
	assert.Equal(t, None, neighbors[1].Junctor)
	assert.Equal(t, None, neighbors[2].Junctor)

	out, err := yaml.Marshal(NeighborDocument{ID: "L1"})
	require.NoError(t, err)
	assert.Equal(t, "id: L1\njunctor: null\n", string(out))

	var bad NeighborDocument
	err = yaml.Unmarshal([]byte("{id: L1, junctor: XOR}"), &bad)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFromDocuments_roundTrip(t *testing.T) {
	all := []Label{
		NewEventLabel("L1", "Cause1", 3, 4),
		NewSubLabel("L2", Conjunction, 5, 8),
		NewSubLabel("L3", Disjunction, 9, 15),
		NewEventLabel("L4", "Cause2", 16, 17),
		NewSubLabel("L5", Disjunction, 18, 20),
		NewEventLabel("L6", "Cause3", 21, 22),
		NewSubLabel("L8", Negation, 21, 22),
		NewEventLabel("L7", "Effect1", 28, 29),
	}
	Connect(all)

	data, err := json.Marshal(ToDocuments(all))
	require.NoError(t, err)

	var docs []Document
	require.NoError(t, json.Unmarshal(data, &docs))
	back, err := FromDocuments(docs)
	require.NoError(t, err)

	assert.True(t, Equal(all, back))
}

func TestFromDocuments_forwardReferences(t *testing.T) {
	docs := []Document{
		{ID: "L2", Name: Variable, Begin: 3, End: 13, Parent: strptr("L1")},
		{ID: "L3", Name: "Effect1", Begin: 30, End: 51, Predecessor: &NeighborDocument{ID: "L1"}},
		{ID: "L1", Name: "Cause1", Begin: 3, End: 24, Children: []string{"L2"}, Successor: &NeighborDocument{ID: "L3"}},
	}
	all, err := FromDocuments(docs)
	require.NoError(t, err)

	cause := all[2].(*EventLabel)
	assert.Same(t, all[1], cause.Successor.Target)
	assert.Len(t, cause.Children, 1)
}

func TestFromDocuments_predecessorOnly(t *testing.T) {
	docs := []Document{
		{ID: "L1", Name: "Cause1", Begin: 0, End: 10},
		{ID: "L2", Name: "Cause2", Begin: 15, End: 20, Predecessor: &NeighborDocument{ID: "L1", Junctor: Or}},
	}
	all, err := FromDocuments(docs)
	require.NoError(t, err)

	first := all[0].(*EventLabel)
	require.NotNil(t, first.Successor)
	assert.Equal(t, Or, first.Successor.Junctor)
}

func TestFromDocuments_parentOnly(t *testing.T) {
	docs := []Document{
		{ID: "L1", Name: "Cause1", Begin: 0, End: 10},
		{ID: "L2", Name: Negation, Begin: 0, End: 3, Parent: strptr("L1")},
	}
	all, err := FromDocuments(docs)
	require.NoError(t, err)
	assert.Equal(t, 1, all[0].(*EventLabel).NegationCount())
}

func TestFromDocuments_malformed(t *testing.T) {
	tests := []struct {
		name string
		docs []Document
	}{
		{"missing id", []Document{{Name: "Cause1", Begin: 0, End: 1}}},
		{"negative begin", []Document{{ID: "L1", Name: "Cause1", Begin: -1, End: 1}}},
		{"end before begin", []Document{{ID: "L1", Name: "Cause1", Begin: 5, End: 1}}},
		{"duplicate id", []Document{
			{ID: "L1", Name: "Cause1", Begin: 0, End: 1},
			{ID: "L1", Name: "Effect1", Begin: 2, End: 3},
		}},
		{"dangling parent", []Document{{ID: "L1", Name: Variable, Begin: 0, End: 1, Parent: strptr("L9")}}},
		{"parent is no event", []Document{
			{ID: "L1", Name: Variable, Begin: 0, End: 1},
			{ID: "L2", Name: Condition, Begin: 0, End: 1, Parent: strptr("L1")},
		}},
		{"dangling child", []Document{{ID: "L1", Name: "Cause1", Begin: 0, End: 1, Children: []string{"L9"}}}},
		{"dangling successor", []Document{{ID: "L1", Name: "Cause1", Begin: 0, End: 1, Successor: &NeighborDocument{ID: "L9"}}}},
		{"contradicting predecessor", []Document{
			{ID: "L1", Name: "Cause1", Begin: 0, End: 1, Successor: &NeighborDocument{ID: "L2"}},
			{ID: "L2", Name: "Cause2", Begin: 2, End: 3, Predecessor: &NeighborDocument{ID: "L3"}},
			{ID: "L3", Name: "Effect1", Begin: 4, End: 5},
		}},
		{"cycle", []Document{
			{ID: "L1", Name: "Cause1", Begin: 0, End: 1, Successor: &NeighborDocument{ID: "L2"}},
			{ID: "L2", Name: "Cause2", Begin: 2, End: 3, Successor: &NeighborDocument{ID: "L1"}},
		}},
		{"shared child", []Document{
			{ID: "L1", Name: "Cause1", Begin: 0, End: 5, Children: []string{"L3"}},
			{ID: "L2", Name: "Cause2", Begin: 0, End: 5, Children: []string{"L3"}},
			{ID: "L3", Name: Variable, Begin: 0, End: 2},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocuments(tt.docs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestEqual(t *testing.T) {
	a := buttonLabels()
	Connect(a)
	b := buttonLabels()
	Connect(b)
	assert.True(t, Equal(a, b))

	c := buttonLabels()
	Connect(c)
	c[0].(*EventLabel).Successor.Junctor = And
	assert.False(t, Equal(a, c))

	d := buttonLabels()
	assert.False(t, Equal(a, d), "unconnected labels differ")

	assert.False(t, Equal(a, a[:3]))
}

func strptr(s string) *string { return &s }
