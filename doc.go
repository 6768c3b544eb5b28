/*
Package scheme declares and processes structured data schemas.

A schema is a tree of fields. Each field knows how to validate values of
its kind, how to move them between an unserialized (in-process) form and
a serialized (transport) form, and how to describe itself as a plain
structure that can be stored, shipped to another system, and
reconstructed there.

# Fields

Scalar fields cover booleans, integers, floats, decimals, text, tokens,
emails, URLs, UUIDs, dates, times, datetimes, binary data and
enumerations. Structural fields compose them: Structure for fixed keys,
Map for arbitrary keys over one value field, Sequence for lists, Tuple
for fixed-shape lists, and Union for alternatives. Object carries
registered Go values by name, and Surrogate captures a value together
with enough information to reconstruct it elsewhere.

# Processing

Values move through Process, which takes a phase (Incoming or Outgoing)
and whether the value is in serialized form:

	schema := &scheme.Structure{
		Base: scheme.Base{Name: "account"},
		Fields: map[string]scheme.Field{
			"name": &scheme.Text{Nonempty: true},
			"age":  &scheme.Integer{Minimum: scheme.Int64Ptr(0)},
		},
	}

	value, err := scheme.Process(schema, payload, scheme.Incoming, true)
	if err != nil {
		var validation *scheme.ValidationError
		if errors.As(err, &validation) {
			// validation.Structure mirrors the shape of the payload,
			// with the failures at the offending positions.
		}
	}

Failures come back as a ValidationError tree carrying stable error
tokens; messages are presentation only.

# Operations

Beyond validation, fields drive filtering (Filter), partial extraction
(Extract), instantiation of richer values (Instantiate), template
interpolation (Interpolate), structural rewriting (Transform), and
round-trips through the format package (Serialize, Unserialize, Read,
Write). Describe and Reconstruct move schemas themselves across the
wire, and Element binds a schema to a Go struct type.

Named, versioned schemas with pluggable persistence live in
pkg/registry; HTTP and MCP front ends for a registry live under
pkg/adapters.
*/
package scheme
