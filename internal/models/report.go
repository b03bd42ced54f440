package models

import "sort"

// FinancialReport is the backend's financial summary aggregate.
type FinancialReport struct {
	TotalRevenue      float64            `json:"totalRevenue"`
	TotalExpenses     float64            `json:"totalExpenses"`
	NetProfit         float64            `json:"netProfit"`
	RevenueByServices map[string]float64 `json:"revenueByServices"`
	MonthlyTrends     []MonthlyTrend     `json:"monthlyTrends"`
}

type MonthlyTrend struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// RevenueByServiceDataset flattens the service mapping, largest first with
// ties broken by name so the order (and thus the palette) is stable.
func (f FinancialReport) RevenueByServiceDataset() Dataset {
	names := make([]string, 0, len(f.RevenueByServices))
	for name := range f.RevenueByServices {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := f.RevenueByServices[names[i]], f.RevenueByServices[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})

	data := make(Dataset, 0, len(names))
	for _, name := range names {
		data = append(data, Record{"service": name, "revenue": f.RevenueByServices[name]})
	}
	return data
}

func (f FinancialReport) MonthlyTrendDataset() Dataset {
	data := make(Dataset, 0, len(f.MonthlyTrends))
	for _, m := range f.MonthlyTrends {
		data = append(data, Record{
			"month":    m.Month,
			"revenue":  m.Revenue,
			"expenses": m.Expenses,
			"profit":   m.Profit,
		})
	}
	return data
}

// InventoryReport is the backend's stock aggregate.
type InventoryReport struct {
	TotalItems        int                 `json:"totalItems"`
	TotalValue        float64             `json:"totalValue"`
	LowStockCount     int                 `json:"lowStockCount"`
	CategoryBreakdown []CategoryBreakdown `json:"categoryBreakdown"`
	LowStockItems     []LowStockItem      `json:"lowStockItems"`
}

type CategoryBreakdown struct {
	Category   string  `json:"category"`
	ItemCount  int     `json:"itemCount"`
	TotalValue float64 `json:"totalValue"`
}

type LowStockItem struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Quantity     int    `json:"quantity"`
	ReorderLevel int    `json:"reorderLevel"`
}

func (r InventoryReport) CategoryDataset() Dataset {
	data := make(Dataset, 0, len(r.CategoryBreakdown))
	for _, c := range r.CategoryBreakdown {
		data = append(data, Record{
			"category":   c.Category,
			"itemCount":  float64(c.ItemCount),
			"totalValue": c.TotalValue,
		})
	}
	return data
}

func (r InventoryReport) LowStockDataset() Dataset {
	data := make(Dataset, 0, len(r.LowStockItems))
	for _, item := range r.LowStockItems {
		data = append(data, Record{
			"name":         item.Name,
			"sku":          item.SKU,
			"quantity":     float64(item.Quantity),
			"reorderLevel": float64(item.ReorderLevel),
		})
	}
	return data
}

// MechanicReport is the backend's per-mechanic performance aggregate.
type MechanicReport struct {
	Mechanics []MechanicPerformance `json:"mechanics"`
}

type MechanicPerformance struct {
	MechanicID       int     `json:"mechanicId"`
	MechanicName     string  `json:"mechanicName"`
	JobsCompleted    int     `json:"jobsCompleted"`
	HoursWorked      float64 `json:"hoursWorked"`
	RevenueGenerated float64 `json:"revenueGenerated"`
	Efficiency       float64 `json:"efficiency"`
}

func (r MechanicReport) PerformanceDataset() Dataset {
	data := make(Dataset, 0, len(r.Mechanics))
	for _, m := range r.Mechanics {
		data = append(data, Record{
			"mechanicId":       float64(m.MechanicID),
			"mechanicName":     m.MechanicName,
			"jobsCompleted":    float64(m.JobsCompleted),
			"hoursWorked":      m.HoursWorked,
			"revenueGenerated": m.RevenueGenerated,
			"efficiency":       m.Efficiency,
		})
	}
	return data
}

// CustomerReport summarises customer activity.
type CustomerReport struct {
	Customers []CustomerActivity `json:"customers"`
}

type CustomerActivity struct {
	CustomerID   int     `json:"customerId"`
	CustomerName string  `json:"customerName"`
	Visits       int     `json:"visits"`
	TotalSpent   float64 `json:"totalSpent"`
	LastVisit    string  `json:"lastVisit"`
}

func (r CustomerReport) ActivityDataset() Dataset {
	data := make(Dataset, 0, len(r.Customers))
	for _, c := range r.Customers {
		data = append(data, Record{
			"customerName": c.CustomerName,
			"visits":       float64(c.Visits),
			"totalSpent":   c.TotalSpent,
			"lastVisit":    c.LastVisit,
		})
	}
	return data
}
