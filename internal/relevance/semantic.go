package relevance

// Association links UI vocabulary in a request to the files likely to
// implement it. A file matches when its lowercase path contains one of Names
// or its kind is listed in Kinds.
type Association struct {
	Topic string
	Terms []string
	Names []string
	Kinds []Kind
}

// DefaultAssociations covers English and Portuguese UI terms.
var DefaultAssociations = []Association{
	{Topic: "button", Terms: []string{"button", "buttons", "btn", "cta", "botão", "botao", "botões", "botoes"}, Names: []string{"button", "btn"}, Kinds: []Kind{KindStylesheet}},
	{Topic: "navigation", Terms: []string{"nav", "navbar", "navigation", "menu", "header", "navegação", "navegacao", "cabeçalho", "cabecalho"}, Names: []string{"nav", "header", "menu"}},
	{Topic: "footer", Terms: []string{"footer", "rodapé", "rodape"}, Names: []string{"footer"}},
	{Topic: "hero", Terms: []string{"hero", "banner", "headline", "destaque"}, Names: []string{"hero", "banner"}},
	{Topic: "form", Terms: []string{"form", "input", "field", "contact", "newsletter", "formulário", "formulario", "campo", "contato"}, Names: []string{"form", "input", "contact", "newsletter"}},
	{Topic: "card", Terms: []string{"card", "cards", "tile", "cartão", "cartao"}, Names: []string{"card", "tile"}},
	{Topic: "modal", Terms: []string{"modal", "dialog", "popup", "diálogo", "dialogo"}, Names: []string{"modal", "dialog", "popup"}},
	{Topic: "layout", Terms: []string{"layout", "page", "página", "pagina", "sidebar", "container"}, Names: []string{"layout", "page", "sidebar"}, Kinds: []Kind{KindMarkup}},
	{Topic: "theme", Terms: []string{"color", "colour", "colors", "theme", "font", "background", "cor", "cores", "tema", "fonte", "fundo"}, Names: []string{"theme", "global", "style", "variables", "tailwind"}, Kinds: []Kind{KindStylesheet}},
	{Topic: "media", Terms: []string{"image", "images", "logo", "icon", "icons", "imagem", "imagens", "ícone", "icone"}, Names: []string{"image", "logo", "icon", "avatar"}},
	{Topic: "list", Terms: []string{"list", "grid", "gallery", "table", "lista", "galeria", "tabela"}, Names: []string{"list", "grid", "gallery", "table"}},
	{Topic: "pricing", Terms: []string{"pricing", "price", "plan", "plans", "preço", "preco", "preços", "plano", "planos"}, Names: []string{"pricing", "price", "plan"}},
	{Topic: "testimonial", Terms: []string{"testimonial", "testimonials", "review", "reviews", "depoimento", "depoimentos"}, Names: []string{"testimonial", "review"}},
}

func (a Association) matchesRequest(tokens map[string]bool) bool {
	for _, t := range a.Terms {
		if tokens[t] {
			return true
		}
	}
	return false
}

func (a Association) matchesFile(lowerPath string, kind Kind) bool {
	for _, k := range a.Kinds {
		if k == kind {
			return true
		}
	}
	for _, n := range a.Names {
		if containsFold(lowerPath, n) {
			return true
		}
	}
	return false
}
