package extraction

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/tractfeat/internal/errors"
	"github.com/23skdu/tractfeat/internal/feature"
)

// Schema is the Arrow layout of a feature table: one row per streamline,
// with the item shape stored alongside its row-major values.
var Schema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32},
		{Name: "rows", Type: arrow.PrimitiveTypes.Int32},
		{Name: "cols", Type: arrow.PrimitiveTypes.Int32},
		{Name: "values", Type: arrow.ListOf(arrow.PrimitiveTypes.Float32)},
	},
	nil,
)

// ToArrow converts any Table into an Arrow record following Schema.
// The caller owns the returned record and must Release it.
func ToArrow(t Table, mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	idBuilder := b.Field(0).(*array.Int32Builder)
	rowsBuilder := b.Field(1).(*array.Int32Builder)
	colsBuilder := b.Field(2).(*array.Int32Builder)
	valuesBuilder := b.Field(3).(*array.ListBuilder)
	valueBuilder := valuesBuilder.ValueBuilder().(*array.Float32Builder)

	n := t.Len()
	idBuilder.Reserve(n)
	rowsBuilder.Reserve(n)
	colsBuilder.Reserve(n)
	if u, ok := t.(*Uniform); ok {
		valueBuilder.Reserve(len(u.Data()))
	}

	for i := 0; i < n; i++ {
		item := t.At(i)
		idBuilder.Append(int32(i))
		rowsBuilder.Append(int32(item.Shape().Rows))
		colsBuilder.Append(int32(item.Shape().Cols))
		valuesBuilder.Append(true)
		valueBuilder.AppendValues(item.Float32().Data32(), nil)
	}

	return b.NewRecord()
}

// ToArrow converts the table into an Arrow record following Schema.
func (u *Uniform) ToArrow(mem memory.Allocator) arrow.Record { return ToArrow(u, mem) }

// ToArrow converts the table into an Arrow record following Schema.
func (r *Ragged) ToArrow(mem memory.Allocator) arrow.Record { return ToArrow(r, mem) }

// FromArrow rebuilds a Table from a record following Schema. Rows are placed
// by their id column. The result is *Uniform when every row has the same
// shape, *Ragged otherwise.
func FromArrow(rec arrow.Record) (Table, error) {
	if !rec.Schema().Equal(Schema) {
		return nil, errors.NewValidationError("extraction.FromArrow",
			fmt.Sprintf("unexpected schema: %s", rec.Schema()))
	}

	ids, ok := rec.Column(0).(*array.Int32)
	if !ok {
		return nil, errors.NewValidationError("extraction.FromArrow", "id column is not int32")
	}
	rows := rec.Column(1).(*array.Int32)
	cols := rec.Column(2).(*array.Int32)
	values := rec.Column(3).(*array.List)
	flat := values.ListValues().(*array.Float32).Float32Values()

	n := int(rec.NumRows())
	items := make([]feature.Array, n)
	seen := make([]bool, n)
	for row := 0; row < n; row++ {
		id := int(ids.Value(row))
		if id < 0 || id >= n || seen[id] {
			return nil, errors.NewValidationError("extraction.FromArrow",
				fmt.Sprintf("invalid or duplicate id %d at row %d", id, row))
		}
		seen[id] = true

		start, end := values.ValueOffsets(row)
		data := make([]float32, end-start)
		copy(data, flat[start:end])
		item, err := feature.NewArray32(data, int(rows.Value(row)), int(cols.Value(row)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "extraction.FromArrow",
				fmt.Sprintf("row %d", row))
		}
		items[id] = item
	}

	return fromItems(items), nil
}

// fromItems packs items densely when their shapes agree.
func fromItems(items []feature.Array) Table {
	if len(items) == 0 {
		return newRagged(0)
	}
	shape := items[0].Shape()
	for _, item := range items[1:] {
		if !item.Shape().Equal(shape) {
			return &Ragged{items: items}
		}
	}
	u := newUniform(len(items), shape)
	for i, item := range items {
		copy(u.slot(i), item.Data32())
	}
	return u
}
