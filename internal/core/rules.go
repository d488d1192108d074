package core

// DefaultRules is the assistant's keyword table. Order matters: the first
// rule with a matching keyword answers, so specific pearl types come before
// generic topics such as price.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{
			Name:     "greeting",
			Keywords: []string{"olá", "bom dia", "boa tarde", "boa noite", "hello"},
			Replies: []string{
				"Olá! Seja bem-vinda à nossa maison de pérolas. Como posso ajudar você hoje?",
				"Oi! Que alegria ter você por aqui. Quer saber sobre pérolas, cursos ou e-books?",
				"Olá! Estou aqui para tirar suas dúvidas sobre o universo das pérolas.",
			},
		},
		{
			Name:     "south_sea",
			Keywords: []string{"south sea", "mares do sul", "dourada"},
			Replies: []string{
				"As pérolas South Sea são cultivadas na Austrália, Indonésia e Filipinas. São as maiores do mundo, com tons que vão do branco ao dourado.",
				"South Sea é a rainha das pérolas: tamanho generoso, nácar espesso e um brilho acetinado único.",
			},
		},
		{
			Name:     "tahiti",
			Keywords: []string{"tahiti", "taiti", "negra"},
			Replies: []string{
				"As pérolas do Taiti vêm da Polinésia Francesa e exibem tons escuros com reflexos verdes, azuis e berinjela.",
				"A pérola negra do Taiti é naturalmente escura, fruto da ostra Pinctada margaritifera.",
			},
		},
		{
			Name:     "akoya",
			Keywords: []string{"akoya"},
			Replies: []string{
				"As pérolas Akoya são cultivadas principalmente no Japão e são famosas pelo brilho espelhado e formato perfeitamente redondo.",
				"Akoya é a pérola clássica dos colares de fio único: delicada, redonda e muito brilhante.",
			},
		},
		{
			Name:     "freshwater",
			Keywords: []string{"água doce", "agua doce", "freshwater"},
			Replies: []string{
				"As pérolas de água doce são cultivadas em lagos e rios, principalmente na China, e oferecem grande variedade de formas e cores.",
				"Pérolas de água doce são versáteis e acessíveis, perfeitas para o dia a dia.",
			},
		},
		{
			Name:     "care",
			Keywords: []string{"cuidar", "cuidado", "limpar", "limpeza", "guardar", "conservar"},
			Replies: []string{
				"Pérolas são as últimas a entrar e as primeiras a sair: coloque-as depois do perfume e da maquiagem e limpe com um pano macio e úmido.",
				"Guarde suas pérolas separadas de outras joias, em um saquinho de tecido macio, longe do calor e da umidade excessiva.",
			},
		},
		{
			Name:     "price",
			Keywords: []string{"preço", "preco", "quanto custa", "valor", "custo"},
			Replies: []string{
				"O valor de uma pérola depende do tipo, tamanho, brilho, superfície e formato. Confira as peças e preços na nossa Boutique!",
				"Os preços variam conforme a origem e a qualidade da pérola. Visite a Boutique para ver cada peça em detalhe.",
			},
		},
		{
			Name:     "academy",
			Keywords: []string{"curso", "academy", "aula", "certificado"},
			Replies: []string{
				"Na Academy você encontra cursos em vídeo sobre pérolas, do cultivo à avaliação de qualidade. Seu progresso fica salvo automaticamente.",
				"Nossos cursos são divididos em aulas curtas. Conclua todas para chegar a 100% do curso!",
			},
		},
		{
			Name:     "ebook",
			Keywords: []string{"e-book", "ebook", "livro", "leitura"},
			Replies: []string{
				"Temos e-books exclusivos sobre pérolas. Você pode continuar a leitura de onde parou a qualquer momento.",
				"Nossa biblioteca de e-books guarda a página em que você parou, é só abrir e continuar.",
			},
		},
		{
			Name:     "boutique",
			Keywords: []string{"comprar", "boutique", "loja", "colar", "brinco", "pulseira"},
			Replies: []string{
				"Na Boutique você encontra colares, brincos e pulseiras com pérolas selecionadas. Dê uma olhada!",
				"Quer uma peça especial? A Boutique tem joias com pérolas para todas as ocasiões.",
			},
		},
		{
			Name:     "thanks",
			Keywords: []string{"obrigad", "valeu", "agradeço"},
			Replies: []string{
				"Por nada! Estou sempre por aqui se precisar.",
				"Eu que agradeço! Qualquer dúvida, é só chamar.",
			},
		},
	}
}

// DefaultReplies answer utterances that match no rule.
func DefaultReplies() []string {
	return []string{
		"Desculpe, não entendi muito bem. Pode reformular a sua pergunta?",
		"Ainda estou aprendendo! Posso ajudar com tipos de pérolas, cuidados, cursos, e-books ou a Boutique.",
		"Hmm, não tenho certeza. Que tal perguntar sobre pérolas South Sea, Taiti, Akoya ou de água doce?",
	}
}
