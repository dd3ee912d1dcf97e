package core

// Expense categories offered to the user. Other values are accepted as free-form.
const (
	CategoryMaterials = "Materiales y Producción"
	CategoryMarketing = "Marketing y Publicidad"
	CategoryShipping  = "Envío y Logística"
	CategorySoftware  = "Software y Herramientas"
	CategoryRent      = "Alquiler de Oficina/Estudio"
	CategorySalaries  = "Salarios"
	CategoryOther     = "Otros"
)

// Advisory topics suggested after a mutation.
const (
	TopicInventory      = "Valoración de Inventario y Margen de Ganancia"
	TopicCOGS           = "Costo de Bienes Vendidos (COGS)"
	TopicMarketing      = "Gastos de Marketing"
	TopicOperating      = "Gastos Operativos"
	TopicExpensesGlobal = "Tipos de Gastos Empresariales"
)

var expenseCategories = []string{
	CategoryMaterials,
	CategoryMarketing,
	CategoryShipping,
	CategorySoftware,
	CategoryRent,
	CategorySalaries,
	CategoryOther,
}

var categoryTopics = map[string]string{
	CategoryMaterials: TopicCOGS,
	CategoryMarketing: TopicMarketing,
	CategoryShipping:  TopicOperating,
}

// ExpenseCategories returns the fixed category list in display order.
func ExpenseCategories() []string {
	return append([]string(nil), expenseCategories...)
}

func IsKnownCategory(category string) bool {
	for _, c := range expenseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// TopicForCategory maps an expense category to the advisory topic worth explaining.
func TopicForCategory(category string) string {
	if topic, ok := categoryTopics[category]; ok {
		return topic
	}
	return TopicExpensesGlobal
}
