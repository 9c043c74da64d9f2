/*
Package tabular reads the source tables and encodes the run artifacts.

PURPOSE:
  Everything that crosses the file boundary lives here: the product table
  that feeds a run, the processed parameter table that the standalone linker
  reads, and the five CSV artifacts a run produces. The stage packages only
  ever see synth types.

READING RULES:
  - A header row is required; column names match case-insensitively
  - Supplier is optional, every other product column is required
  - Unit prices may carry one leading or trailing currency symbol and
    comma thousands grouping ("$1,299.00", "12.50 €"). Any other comma or
    inner space ("1,99", "1 99") is rejected
  - Rows are numbered by their physical line in the file, so blank lines
    and multi-line quoted fields never shift the reported row
  - A cell that cannot be used is a DataError naming the row and column.
    Every bad cell of the table is reported, never coerced to zero

SEE ALSO:
  - writer.go: Artifact encoders
  - synth/errors.go: InputMissingError, DataError
*/
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/shelf-engine/synth"
)

// Product table columns.
const (
	ColProductName     = "Product_Name"
	ColCategory        = "Category"
	ColSupplier        = "Supplier"
	ColUnitPrice       = "Unit_Price"
	ColSalesVolume     = "Sales_Volume"
	ColReorderLevel    = "Reorder_Level"
	ColReorderQuantity = "Reorder_Quantity"
)

var productColumns = []string{
	ColProductName, ColCategory, ColUnitPrice,
	ColSalesVolume, ColReorderLevel, ColReorderQuantity,
}

// ProductTable is a decoded product table.
type ProductTable struct {
	Products []synth.Product
	// HasSupplier reports whether the table carried a Supplier column.
	HasSupplier bool
}

// ReadProducts opens and decodes the product table at path.
func ReadProducts(path string) (*ProductTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &synth.InputMissingError{Path: path}
		}
		return nil, &synth.InputMissingError{Path: path, Err: err}
	}
	defer f.Close()
	return DecodeProducts(f, path)
}

// DecodeProducts decodes a product table. name is used in error messages.
func DecodeProducts(r io.Reader, name string) (*ProductTable, error) {
	h, records, err := readTable(r, name)
	if err != nil {
		return nil, err
	}
	if err := h.require(name, productColumns...); err != nil {
		return nil, err
	}

	table := &ProductTable{HasSupplier: h.has(ColSupplier)}
	var errs []error
	for _, rec := range records {
		c := cells{file: name, row: rec.line, rec: rec.fields, h: h}
		p := synth.Product{
			Row:      c.row,
			Name:     c.text(ColProductName),
			Category: c.text(ColCategory),
			Supplier: c.optional(ColSupplier),
		}
		if p.Name == "" {
			c.fail(ColProductName, "", "product name is empty")
		}
		p.UnitPrice = c.price(ColUnitPrice)
		p.SalesVolume = c.number(ColSalesVolume)
		p.ReorderLevel = c.number(ColReorderLevel)
		p.ReorderQuantity = c.number(ColReorderQuantity)

		errs = append(errs, c.errs...)
		table.Products = append(table.Products, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// ReadProcessed reads the product identities back from a processed parameter
// table. Only Product_Name and Category are required.
func ReadProcessed(path string) ([]synth.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &synth.InputMissingError{Path: path}
		}
		return nil, &synth.InputMissingError{Path: path, Err: err}
	}
	defer f.Close()
	return DecodeProcessed(f, path)
}

// DecodeProcessed decodes the identity columns of a processed parameter table.
func DecodeProcessed(r io.Reader, name string) ([]synth.Product, error) {
	h, records, err := readTable(r, name)
	if err != nil {
		return nil, err
	}
	if err := h.require(name, ColProductName, ColCategory); err != nil {
		return nil, err
	}

	var (
		products []synth.Product
		errs     []error
	)
	for _, rec := range records {
		c := cells{file: name, row: rec.line, rec: rec.fields, h: h}
		p := synth.Product{
			Row:      c.row,
			Name:     c.text(ColProductName),
			Category: c.text(ColCategory),
			Supplier: c.optional(ColSupplier),
		}
		if p.Name == "" {
			c.fail(ColProductName, "", "product name is empty")
		}
		errs = append(errs, c.errs...)
		products = append(products, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return products, nil
}

// =============================================================================
// TABLE HELPERS
// =============================================================================

type header map[string]int

func (h header) has(col string) bool {
	_, ok := h[strings.ToLower(col)]
	return ok
}

func (h header) require(file string, cols ...string) error {
	var errs []error
	for _, col := range cols {
		if !h.has(col) {
			errs = append(errs, &synth.DataError{File: file, Row: 1, Column: col, Reason: "required column is missing"})
		}
	}
	return errors.Join(errs...)
}

// record is one data row and the line it starts on.
type record struct {
	line   int
	fields []string
}

func readTable(r io.Reader, name string) (header, []record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		h       header
		records []record
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, nil, &synth.DataError{File: name, Row: pe.StartLine, Reason: pe.Err.Error()}
			}
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if h == nil {
			h = make(header, len(fields))
			for i, col := range fields {
				if i == 0 {
					col = strings.TrimPrefix(col, "\ufeff")
				}
				h[strings.ToLower(strings.TrimSpace(col))] = i
			}
			continue
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
	if h == nil {
		return nil, nil, &synth.DataError{File: name, Reason: "table has no header row"}
	}
	return h, records, nil
}

// cells reads typed values from one record and collects the failures.
type cells struct {
	file string
	row  int
	rec  []string
	h    header
	errs []error
}

func (c *cells) fail(col, value, reason string) {
	c.errs = append(c.errs, &synth.DataError{File: c.file, Row: c.row, Column: col, Value: value, Reason: reason})
}

func (c *cells) raw(col string) (string, bool) {
	i, ok := c.h[strings.ToLower(col)]
	if !ok || i >= len(c.rec) {
		return "", false
	}
	return strings.TrimSpace(c.rec[i]), true
}

func (c *cells) text(col string) string {
	v, ok := c.raw(col)
	if !ok {
		c.fail(col, "", "value is missing")
	}
	return v
}

func (c *cells) optional(col string) string {
	v, _ := c.raw(col)
	return v
}

var currencySymbols = []string{"$", "€", "£", "¥"}

// groupedNumber matches comma thousands grouping: "1,299" or "12,345,678.50".
var groupedNumber = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

// stripCurrency removes one leading or trailing currency symbol and the
// whitespace around it.
func stripCurrency(v string) string {
	v = strings.TrimSpace(v)
	for _, sym := range currencySymbols {
		if rest, ok := strings.CutPrefix(v, sym); ok {
			return strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutSuffix(v, sym); ok {
			return strings.TrimSpace(rest)
		}
	}
	return v
}

// ungroup drops thousands separators. ok is false for any other comma.
func ungroup(v string) (string, bool) {
	if !strings.Contains(v, ",") {
		return v, true
	}
	if !groupedNumber.MatchString(v) {
		return "", false
	}
	return strings.ReplaceAll(v, ",", ""), true
}

func (c *cells) price(col string) decimal.Decimal {
	v, ok := c.raw(col)
	if !ok {
		c.fail(col, "", "value is missing")
		return decimal.Zero
	}
	cleaned := stripCurrency(v)
	if cleaned == "" {
		c.fail(col, v, "price is empty")
		return decimal.Zero
	}
	cleaned, ok = ungroup(cleaned)
	if !ok || strings.ContainsAny(cleaned, " \t") {
		c.fail(col, v, "price is not numeric")
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		c.fail(col, v, "price is not numeric")
		return decimal.Zero
	}
	if d.IsNegative() {
		c.fail(col, v, "price is negative")
	}
	return d
}

func (c *cells) number(col string) float64 {
	v, ok := c.raw(col)
	if !ok {
		c.fail(col, "", "value is missing")
		return 0
	}
	cleaned, grouped := ungroup(v)
	f, err := strconv.ParseFloat(cleaned, 64)
	switch {
	case v == "":
		c.fail(col, v, "value is empty")
	case !grouped || err != nil:
		c.fail(col, v, "value is not numeric")
	case math.IsNaN(f) || math.IsInf(f, 0):
		c.fail(col, v, "value is not finite")
	case f < 0:
		c.fail(col, v, "value is negative")
	}
	return f
}
