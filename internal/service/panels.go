package service

import (
	"context"

	"workshop-web/internal/models"
	"workshop-web/internal/visualizer"

	"github.com/shopspring/decimal"
)

// Card is one summary figure shown above the panels.
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type panelSpec struct {
	id     string
	title  string
	views  []visualizer.ViewKind
	config visualizer.ViewConfig
}

// generation is one decoded backend response, flattened into panel datasets.
type generation struct {
	cards []Card
	data  map[string]models.Dataset
}

type loader func(ctx context.Context, src ReportSource, criteria models.ReportCriteria) (*generation, error)

// definition is the static, hand-authored layout of one report screen.
type definition struct {
	reportType models.ReportType
	title      string
	panels     []panelSpec
	load       loader
}

func moneyColumn(header, key string) visualizer.Column {
	return visualizer.Column{
		Header: header,
		Render: func(row models.Record, _ models.Dataset) interface{} {
			v, ok := row.Get(key)
			if !ok || v == nil {
				return nil
			}
			return FormatMoney(v)
		},
	}
}

func shareColumn(header, key string) visualizer.Column {
	return visualizer.Column{
		Header: header,
		Render: func(row models.Record, data models.Dataset) interface{} {
			return FormatPercent(shareOf(row, data, key))
		},
	}
}

func moneyTooltip(v interface{}) string {
	return FormatMoney(v)
}

var allLenses = []visualizer.ViewKind{visualizer.ViewTable, visualizer.ViewPie, visualizer.ViewBar}

var definitions = map[models.ReportType]definition{
	models.ReportFinancial: {
		reportType: models.ReportFinancial,
		title:      "Financial Report",
		panels: []panelSpec{
			{
				id:    "revenue-by-service",
				title: "Revenue by Service",
				views: allLenses,
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Service", Accessor: "service"},
						moneyColumn("Revenue", "revenue"),
						shareColumn("Share", "revenue"),
					}},
					Pie:              &visualizer.PieConfig{DataKey: "revenue", NameKey: "service"},
					Bar:              &visualizer.BarConfig{XAxisKey: "service", Bars: []visualizer.BarSeries{{DataKey: "revenue", Name: "Revenue"}}},
					TooltipFormatter: moneyTooltip,
				},
			},
			{
				id:    "monthly-trends",
				title: "Monthly Trends",
				views: []visualizer.ViewKind{visualizer.ViewTable, visualizer.ViewBar},
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Month", Accessor: "month"},
						moneyColumn("Revenue", "revenue"),
						moneyColumn("Expenses", "expenses"),
						moneyColumn("Profit", "profit"),
					}},
					Bar: &visualizer.BarConfig{XAxisKey: "month", Bars: []visualizer.BarSeries{
						{DataKey: "revenue", Name: "Revenue"},
						{DataKey: "expenses", Name: "Expenses"},
						{DataKey: "profit", Name: "Profit"},
					}},
					TooltipFormatter: moneyTooltip,
				},
			},
		},
		load: func(ctx context.Context, src ReportSource, c models.ReportCriteria) (*generation, error) {
			var r models.FinancialReport
			if err := src.Generate(ctx, c, &r); err != nil {
				return nil, err
			}
			return &generation{
				cards: []Card{
					{Label: "Total Revenue", Value: FormatMoney(r.TotalRevenue)},
					{Label: "Total Expenses", Value: FormatMoney(r.TotalExpenses)},
					{Label: "Net Profit", Value: FormatMoney(r.NetProfit)},
				},
				data: map[string]models.Dataset{
					"revenue-by-service": r.RevenueByServiceDataset(),
					"monthly-trends":     r.MonthlyTrendDataset(),
				},
			}, nil
		},
	},

	models.ReportInventory: {
		reportType: models.ReportInventory,
		title:      "Inventory Report",
		panels: []panelSpec{
			{
				id:    "stock-by-category",
				title: "Stock by Category",
				views: allLenses,
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Category", Accessor: "category"},
						{Header: "Items", Accessor: "itemCount"},
						moneyColumn("Stock Value", "totalValue"),
						shareColumn("Share of Value", "totalValue"),
					}},
					Pie:              &visualizer.PieConfig{DataKey: "totalValue", NameKey: "category"},
					Bar:              &visualizer.BarConfig{XAxisKey: "category", Bars: []visualizer.BarSeries{{DataKey: "totalValue", Name: "Stock Value"}}},
					TooltipFormatter: moneyTooltip,
				},
			},
			{
				id:    "low-stock",
				title: "Low Stock Items",
				views: []visualizer.ViewKind{visualizer.ViewTable},
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Item", Accessor: "name"},
						{Header: "SKU", Accessor: "sku"},
						{Header: "Quantity", Accessor: "quantity"},
						{Header: "Reorder Level", Accessor: "reorderLevel"},
						{Header: "Shortfall", Render: func(row models.Record, _ models.Dataset) interface{} {
							q, _ := row.Number("quantity")
							lvl, _ := row.Number("reorderLevel")
							if q >= lvl {
								return 0.0
							}
							return lvl - q
						}},
					}},
				},
			},
		},
		load: func(ctx context.Context, src ReportSource, c models.ReportCriteria) (*generation, error) {
			var r models.InventoryReport
			if err := src.Generate(ctx, c, &r); err != nil {
				return nil, err
			}
			return &generation{
				cards: []Card{
					{Label: "Total Items", Value: decimal.NewFromInt(int64(r.TotalItems)).String()},
					{Label: "Stock Value", Value: FormatMoney(r.TotalValue)},
					{Label: "Low Stock", Value: decimal.NewFromInt(int64(r.LowStockCount)).String()},
				},
				data: map[string]models.Dataset{
					"stock-by-category": r.CategoryDataset(),
					"low-stock":         r.LowStockDataset(),
				},
			}, nil
		},
	},

	models.ReportMechanic: {
		reportType: models.ReportMechanic,
		title:      "Mechanic Performance",
		panels: []panelSpec{
			{
				id:    "performance",
				title: "Mechanic Performance",
				views: []visualizer.ViewKind{visualizer.ViewTable, visualizer.ViewBar},
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Mechanic", Accessor: "mechanicName"},
						{Header: "Jobs Completed", Accessor: "jobsCompleted"},
						{Header: "Hours Worked", Accessor: "hoursWorked"},
						moneyColumn("Revenue", "revenueGenerated"),
						{Header: "Efficiency", Render: func(row models.Record, _ models.Dataset) interface{} {
							v, ok := row.Get("efficiency")
							if !ok || v == nil {
								return nil
							}
							return FormatPercent(v)
						}},
					}},
					Bar: &visualizer.BarConfig{XAxisKey: "mechanicName", Bars: []visualizer.BarSeries{
						{DataKey: "jobsCompleted", Name: "Jobs Completed"},
						{DataKey: "hoursWorked", Name: "Hours Worked"},
					}},
				},
			},
		},
		load: func(ctx context.Context, src ReportSource, c models.ReportCriteria) (*generation, error) {
			var r models.MechanicReport
			if err := src.Generate(ctx, c, &r); err != nil {
				return nil, err
			}
			data := r.PerformanceDataset()
			return &generation{
				cards: []Card{
					{Label: "Mechanics", Value: decimal.NewFromInt(int64(len(r.Mechanics))).String()},
					{Label: "Jobs Completed", Value: sumColumn(data, "jobsCompleted").String()},
					{Label: "Revenue Generated", Value: FormatMoney(sumColumn(data, "revenueGenerated"))},
				},
				data: map[string]models.Dataset{"performance": data},
			}, nil
		},
	},

	models.ReportCustomer: {
		reportType: models.ReportCustomer,
		title:      "Customer Report",
		panels: []panelSpec{
			{
				id:    "activity",
				title: "Customer Activity",
				views: allLenses,
				config: visualizer.ViewConfig{
					Table: &visualizer.TableConfig{Columns: []visualizer.Column{
						{Header: "Customer", Accessor: "customerName"},
						{Header: "Visits", Accessor: "visits"},
						moneyColumn("Total Spent", "totalSpent"),
						{Header: "Last Visit", Accessor: "lastVisit"},
					}},
					Pie:              &visualizer.PieConfig{DataKey: "totalSpent", NameKey: "customerName"},
					Bar:              &visualizer.BarConfig{XAxisKey: "customerName", Bars: []visualizer.BarSeries{{DataKey: "totalSpent", Name: "Total Spent"}}},
					TooltipFormatter: moneyTooltip,
				},
			},
		},
		load: func(ctx context.Context, src ReportSource, c models.ReportCriteria) (*generation, error) {
			var r models.CustomerReport
			if err := src.Generate(ctx, c, &r); err != nil {
				return nil, err
			}
			data := r.ActivityDataset()
			return &generation{
				cards: []Card{
					{Label: "Customers", Value: decimal.NewFromInt(int64(len(r.Customers))).String()},
					{Label: "Visits", Value: sumColumn(data, "visits").String()},
					{Label: "Revenue", Value: FormatMoney(sumColumn(data, "totalSpent"))},
				},
				data: map[string]models.Dataset{"activity": data},
			}, nil
		},
	},
}

// ReportTypes lists the screens in navigation order.
var ReportTypes = []models.ReportType{
	models.ReportFinancial,
	models.ReportInventory,
	models.ReportMechanic,
	models.ReportCustomer,
}

// Title returns the screen heading for a report type.
func Title(rt models.ReportType) string {
	if def, ok := definitions[rt]; ok {
		return def.title
	}
	return string(rt)
}
