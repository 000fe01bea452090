package testhelpers

import (
	"context"
	"testing"
)

func TestWarehouseDB_SchemaMigrated(t *testing.T) {
	db := GetWarehouseDB(t)

	ctx := context.Background()

	// The star schema migrations create the four warehouse tables.
	tests := []struct {
		table    string
		expected int
	}{
		{"dim_customer", 5},
		{"dim_product", 5},
		{"dim_date", 5},
		{"fact_sales", 10},
	}

	for _, tt := range tests {
		var count int
		err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+tt.table).Scan(&count)
		if err != nil {
			t.Errorf("failed to count %s: %v", tt.table, err)
			continue
		}
		if count != tt.expected {
			t.Errorf("%s: expected %d rows, got %d", tt.table, tt.expected, count)
		}
	}
}

func TestWarehouseDB_ForeignKeysResolve(t *testing.T) {
	db := GetWarehouseDB(t)

	ctx := context.Background()

	var orphans int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM fact_sales f
		LEFT JOIN dim_customer c ON f.customer_id = c.customer_id
		LEFT JOIN dim_product p ON f.product_id = p.product_id
		LEFT JOIN dim_date d ON f.date_id = d.date_id
		WHERE c.customer_id IS NULL OR p.product_id IS NULL OR d.date_id IS NULL`).
		Scan(&orphans)
	if err != nil {
		t.Fatalf("failed to check fact references: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected no orphaned fact rows, got %d", orphans)
	}
}
