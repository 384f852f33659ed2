package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gitgovernance/core/pkg/store"
)

// listAll materializes every record in st, in List's id order.
func listAll[T any](ctx context.Context, st store.Store[T]) ([]T, error) {
	ids, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		rec, err := st.Get(ctx, id)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error encoding result: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, string(data))
	return 0
}
