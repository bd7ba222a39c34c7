// Package reports consulta el backend de negocio del parque
// (ventas, inventario, compras, proveedores, departamentos) y arma
// las respuestas de los comandos de reporte.
package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// El backend vive detras de un tunel ngrok; sin timeout una caida del
// tunel dejaria al bot colgado con el mensaje sin responder.
var httpClient = &http.Client{Timeout: 10 * time.Second}

type Client struct {
	BaseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/")}
}

const lineCap = 15

// Dispatch atiende un comando de reporte. Devuelve (respuesta, true)
// si el texto corresponde a uno de los comandos del backend.
func (c *Client) Dispatch(ctx context.Context, text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.HasPrefix(lower, "/inventario"):
		return c.Inventario(ctx, lower), true
	case strings.HasPrefix(lower, "/ventas"):
		return c.Ventas(ctx, lower), true
	case strings.HasPrefix(lower, "/compras"):
		return c.Compras(ctx, lower), true
	case strings.HasPrefix(lower, "/proveedores"):
		return c.Proveedores(ctx, lower), true
	case strings.HasPrefix(lower, "/departamentos"):
		return c.Departamentos(ctx), true
	}
	return "", false
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d en %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type entry struct {
	name  string
	value float64
}

func sortedEntries(m map[string]float64) []entry {
	out := make([]entry, 0, len(m))
	for k, v := range m {
		out = append(out, entry{k, v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Ventas atiende /ventas y sus filtros (ayer, semana, mes, detalle,
// top, 0/cero).
func (c *Client) Ventas(ctx context.Context, lower string) string {
	endpoint := "/api/ventas/hoy"
	titulo := "💰 *Ventas del día*"

	switch {
	case strings.Contains(lower, "ayer"):
		endpoint, titulo = "/api/ventas/ayer", "📆 *Ventas de ayer*"
	case strings.Contains(lower, "semana"):
		endpoint, titulo = "/api/ventas/semana", "📈 *Ventas de esta semana*"
	case strings.Contains(lower, "mes"):
		endpoint, titulo = "/api/ventas/mes", "📅 *Ventas de este mes*"
	case strings.Contains(lower, "detalle"):
		endpoint, titulo = "/api/ventas/detalle", "🔍 *Detalle de ventas por producto*"
	}

	var payload struct {
		TotalVentas       float64            `json:"total_ventas"`
		ProductosVendidos map[string]float64 `json:"productos_vendidos"`
	}
	if err := c.get(ctx, endpoint, &payload); err != nil {
		logrus.Errorf("[REPORTS] al consultar ventas: %v", err)
		return "❌ Error al consultar ventas."
	}

	lista := sortedEntries(payload.ProductosVendidos)

	switch {
	case strings.Contains(lower, "top"):
		sort.Slice(lista, func(i, j int) bool { return lista[i].value > lista[j].value })
		if len(lista) > 10 {
			lista = lista[:10]
		}
		titulo = "🏆 *Top productos más vendidos*"
	case strings.Contains(lower, " 0") || strings.Contains(lower, "cero"):
		filtrada := lista[:0]
		for _, e := range lista {
			if e.value == 0 {
				filtrada = append(filtrada, e)
			}
		}
		lista = filtrada
		titulo = "⚠️ *Productos con ventas en 0 (revisar)*"
	}

	if len(lista) == 0 {
		return "⚠️ No hay datos disponibles para este filtro de ventas."
	}
	if len(lista) > lineCap {
		lista = lista[:lineCap]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nTotal: $%.2f\n\n", titulo, payload.TotalVentas)
	for i, e := range lista {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "• %s: %s", e.name, formatNumber(e.value))
	}
	return sb.String()
}

type inventoryItem struct {
	nombre     string
	existencia float64
	unidad     string
}

// El backend exporta los nombres con el codigo numerico del sistema
// contable por delante; se recorta para el chat.
func cleanProductName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	i := 0
	for i < len(trimmed) && i < 6 && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 {
		rest := trimmed[i:]
		rest = strings.TrimPrefix(rest, "\t")
		return strings.TrimSpace(rest)
	}
	return trimmed
}

// Inventario atiende /inventario y sus filtros (todo, negativo,
// agotado, faltantes, top).
func (c *Client) Inventario(ctx context.Context, lower string) string {
	var payload struct {
		Inventario map[string]struct {
			Existencia float64 `json:"existencia"`
			Unidad     string  `json:"unidad"`
		} `json:"inventario"`
	}
	if err := c.get(ctx, "/api/inventario", &payload); err != nil {
		logrus.Errorf("[REPORTS] al procesar /inventario: %v", err)
		return "❌ Error al consultar inventario."
	}
	if len(payload.Inventario) == 0 {
		return "📦 Inventario vacío o no disponible."
	}

	lista := make([]inventoryItem, 0, len(payload.Inventario))
	for nombre, info := range payload.Inventario {
		lista = append(lista, inventoryItem{cleanProductName(nombre), info.Existencia, info.Unidad})
	}
	sort.Slice(lista, func(i, j int) bool { return lista[i].nombre < lista[j].nombre })

	var filtrado []inventoryItem
	var titulo string

	switch {
	case strings.Contains(lower, "todo"):
		filtrado, titulo = lista, "📦 *Inventario completo:*"
	case strings.Contains(lower, "negativo"):
		titulo = "🚨 *Productos con existencia negativa:*"
		for _, p := range lista {
			if p.existencia < 0 {
				filtrado = append(filtrado, p)
			}
		}
	case strings.Contains(lower, "agotado"):
		titulo = "❌ *Productos agotados:*"
		for _, p := range lista {
			if p.existencia == 0 {
				filtrado = append(filtrado, p)
			}
		}
	case strings.Contains(lower, "faltantes"):
		titulo = "⚠️ *Productos casi agotados (≤ 3):*"
		for _, p := range lista {
			if p.existencia > 0 && p.existencia <= 3 {
				filtrado = append(filtrado, p)
			}
		}
	case strings.Contains(lower, "top"):
		titulo = "📊 *Top 10 productos con mayor existencia:*"
		for _, p := range lista {
			if p.existencia > 0 {
				filtrado = append(filtrado, p)
			}
		}
		sort.Slice(filtrado, func(i, j int) bool { return filtrado[i].existencia > filtrado[j].existencia })
		if len(filtrado) > 10 {
			filtrado = filtrado[:10]
		}
	default:
		titulo = "📦 *Inventario actual:*"
		for _, p := range lista {
			if p.existencia > 0 {
				filtrado = append(filtrado, p)
			}
		}
		if len(filtrado) > 10 {
			filtrado = filtrado[:10]
		}
	}

	if len(filtrado) == 0 {
		return "⚠️ No se encontraron productos para este filtro."
	}

	var sb strings.Builder
	sb.WriteString(titulo + "\n")
	for _, p := range filtrado {
		fmt.Fprintf(&sb, "\n• %s: %s %s", p.nombre, formatNumber(p.existencia), p.unidad)
	}
	return sb.String()
}

// Compras atiende /compras, /compras detalle y /compras proveedor.
func (c *Client) Compras(ctx context.Context, lower string) string {
	switch {
	case strings.Contains(lower, "detalle"):
		var payload struct {
			ProductosComprados []struct {
				Producto string  `json:"producto"`
				Cantidad float64 `json:"cantidad"`
				Total    float64 `json:"total"`
			} `json:"productos_comprados"`
		}
		if err := c.get(ctx, "/api/compras/detalle", &payload); err != nil {
			logrus.Errorf("[REPORTS] al procesar /compras: %v", err)
			return "❌ Error al consultar compras."
		}
		if len(payload.ProductosComprados) == 0 {
			return "📦 No hay detalle de compras disponibles."
		}
		productos := payload.ProductosComprados
		if len(productos) > lineCap {
			productos = productos[:lineCap]
		}
		var sb strings.Builder
		sb.WriteString("🧾 *Productos comprados:*\n")
		for _, p := range productos {
			fmt.Fprintf(&sb, "\n• %s: %s u. – $%.2f", p.Producto, formatNumber(p.Cantidad), p.Total)
		}
		return sb.String()

	case strings.Contains(lower, "proveedor"):
		return c.comprasPorProveedor(ctx)

	default:
		var payload struct {
			TotalCompras float64 `json:"total_compras"`
		}
		if err := c.get(ctx, "/api/compras", &payload); err != nil {
			logrus.Errorf("[REPORTS] al procesar /compras: %v", err)
			return "❌ Error al consultar compras."
		}
		return fmt.Sprintf("🛒 *Compras del día:*\n\nTotal: $%.2f", payload.TotalCompras)
	}
}

func (c *Client) comprasPorProveedor(ctx context.Context) string {
	var payload struct {
		ComprasPorProveedor map[string]float64 `json:"compras_por_proveedor"`
	}
	if err := c.get(ctx, "/api/proveedores", &payload); err != nil {
		logrus.Errorf("[REPORTS] al consultar proveedores: %v", err)
		return "❌ Error al consultar proveedores."
	}

	lista := sortedEntries(payload.ComprasPorProveedor)
	sort.SliceStable(lista, func(i, j int) bool { return lista[i].value > lista[j].value })
	if len(lista) == 0 {
		return "📦 No hay compras por proveedor disponibles."
	}
	if len(lista) > lineCap {
		lista = lista[:lineCap]
	}

	var sb strings.Builder
	sb.WriteString("🏪 *Compras por proveedor:*\n")
	for _, e := range lista {
		fmt.Fprintf(&sb, "\n• %s: $%.2f", e.name, e.value)
	}
	return sb.String()
}

// Proveedores atiende /proveedores y /proveedores info.
func (c *Client) Proveedores(ctx context.Context, lower string) string {
	if strings.Contains(lower, "info") {
		var payload struct {
			Proveedores []struct {
				Nombre string `json:"nombre"`
				RIF    string `json:"rif"`
			} `json:"proveedores"`
		}
		if err := c.get(ctx, "/api/proveedores/info", &payload); err != nil {
			logrus.Errorf("[REPORTS] al procesar /proveedores: %v", err)
			return "❌ Error al consultar proveedores."
		}
		if len(payload.Proveedores) == 0 {
			return "📇 No se encontraron datos de proveedores."
		}
		lista := payload.Proveedores
		if len(lista) > lineCap {
			lista = lista[:lineCap]
		}
		var sb strings.Builder
		sb.WriteString("📇 *Proveedores registrados:*\n")
		for _, p := range lista {
			fmt.Fprintf(&sb, "\n• %s (%s)", p.Nombre, p.RIF)
		}
		return sb.String()
	}

	return c.comprasPorProveedor(ctx)
}

// Departamentos atiende /departamentos.
func (c *Client) Departamentos(ctx context.Context) string {
	var payload struct {
		Departamentos []string `json:"departamentos"`
	}
	if err := c.get(ctx, "/api/departamentos", &payload); err != nil {
		logrus.Errorf("[REPORTS] al consultar /departamentos: %v", err)
		return "❌ Error al consultar departamentos."
	}
	if len(payload.Departamentos) == 0 {
		return "⚠️ No se encontraron departamentos registrados."
	}

	lista := payload.Departamentos
	if len(lista) > 30 {
		lista = lista[:30]
	}
	var sb strings.Builder
	sb.WriteString("🏷️ *Departamentos registrados:*\n")
	for i, d := range lista {
		fmt.Fprintf(&sb, "\n• %d. %s", i+1, d)
	}
	return sb.String()
}
