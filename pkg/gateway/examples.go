package gateway

import (
	"fmt"
	"strings"

	"github.com/querylens-io/starmart-engine/pkg/sqlguard"
)

// Example is a canned query callers can try against the star schema.
type Example struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Query       string `json:"query"`
}

// Examples returns the static example catalog. No query in it touches a
// table outside the default allow-list.
func Examples() []Example {
	return []Example{
		{
			Title:       "Get all customers",
			Description: "Retrieve all customer records",
			Query:       "SELECT * FROM dim_customer LIMIT 10",
		},
		{
			Title:       "Product categories",
			Description: "Count products by category",
			Query:       "SELECT category, COUNT(*) as product_count FROM dim_product GROUP BY category ORDER BY product_count DESC",
		},
		{
			Title:       "Top customers by sales",
			Description: "Find customers with highest total sales",
			Query:       "SELECT c.customer_name, SUM(f.total_amount) as total_sales FROM fact_sales f JOIN dim_customer c ON f.customer_id = c.customer_id GROUP BY c.customer_name ORDER BY total_sales DESC LIMIT 10",
		},
		{
			Title:       "Monthly sales summary",
			Description: "Sales summary by month",
			Query:       "SELECT d.month_name, d.year, COUNT(*) as order_count, SUM(f.total_amount) as total_sales FROM fact_sales f JOIN dim_date d ON f.date_id = d.date_id GROUP BY d.year, d.month, d.month_name ORDER BY d.year, d.month",
		},
		{
			Title:       "Weekend vs Weekday sales",
			Description: "Compare sales between weekends and weekdays",
			Query:       "SELECT CASE WHEN d.is_weekend = 1 THEN 'Weekend' ELSE 'Weekday' END as period, COUNT(*) as order_count, AVG(f.total_amount) as avg_order_value FROM fact_sales f JOIN dim_date d ON f.date_id = d.date_id GROUP BY d.is_weekend",
		},
		{
			Title:       "Product performance",
			Description: "Best selling products with details",
			Query:       "SELECT p.product_name, p.category, p.brand, COUNT(*) as times_sold, SUM(f.quantity) as total_quantity, SUM(f.total_amount) as total_revenue FROM fact_sales f JOIN dim_product p ON f.product_id = p.product_id GROUP BY p.product_name, p.category, p.brand ORDER BY total_revenue DESC LIMIT 15",
		},
	}
}

// UsageTips renders the catalog's usage guidance from the active policy.
func UsageTips(policy sqlguard.Policy) []string {
	return []string{
		"All queries must start with SELECT",
		fmt.Sprintf("Maximum query length is %d characters", policy.MaxQueryLength),
		fmt.Sprintf("Maximum %d rows returned per query", policy.MaxRowLimit),
		fmt.Sprintf("Only tables: %s are accessible", strings.Join(policy.AllowedTableNames(), ", ")),
		"Comments (-- or /* */) are not allowed",
		"Use LIMIT to control result size",
	}
}
