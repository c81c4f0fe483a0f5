package reports

// Project builds document headers and rows from a kind's column schema
func Project(kind ReportKind, rows []Record, resolver *Resolver) Table {
	schema := MustLookup(kind).Schema

	headers := make([]string, len(schema))
	for i, col := range schema {
		headers[i] = col.Label
	}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(schema))
		for i, col := range schema {
			v, ok := row.Get(col.Key)
			if !ok {
				continue
			}
			cells[i] = resolver.Resolve(col.Key, v)
		}
		body = append(body, cells)
	}

	return Table{Headers: headers, Body: body}
}
