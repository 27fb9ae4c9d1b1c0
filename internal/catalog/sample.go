package catalog

// SampleProducts returns the demo catalog used by the in-memory store and
// the offline seeder. IDs are 1-based and stable: vector index entries are
// derived from them.
func SampleProducts() []Product {
	return []Product{
		{
			ID:          1,
			Name:        "Nouvelle Revolution White Sofa",
			Description: "Experience ultimate comfort and modern style with this plush, cream-colored sofa. Featuring smooth, rounded edges and a minimalist design, it adds a touch of elegance to any living space. Upholstered in soft, durable fabric, this sofa is perfect for relaxing, entertaining, or simply elevating your home's contemporary décor.",
			Category:    "furniture",
			Brand:       "Lewis",
			Price:       500,
			ImageURL:    "data/images/white_sofa.jpg",
		},
		{
			ID:          2,
			Name:        "Navy Blue Velvet Sofa with Turned Wooden Legs",
			Description: "Elevate your living space with this stylish navy blue velvet sofa, designed for both elegance and comfort. With its plush cushioning, supportive back pillows, and classic turned wooden legs, this sofa offers a cozy spot for relaxation while adding a touch of sophistication to any modern or traditional home décor.",
			Category:    "furniture",
			Brand:       "Johnson",
			Price:       1500,
			ImageURL:    "data/images/black_sofa.jpg",
		},
		{
			ID:          3,
			Name:        "Vibrant Multicolor High-Waisted Statement Pants",
			Description: "Stand out in style with these eye-catching, high-waisted pants featuring a vibrant, multicolored print of whimsical characters and geometric patterns. Crafted from comfortable fabric, these trousers are perfect for making a bold fashion statement at any event or party. Add a pop of color and creativity to your wardrobe today!",
			Category:    "clothing",
			Brand:       "Lewis",
			Price:       20,
			ImageURL:    "data/images/colorful_jeans.jpg",
		},
		{
			ID:          4,
			Name:        "Classic Black Skinny Jeans",
			Description: "Enhance your wardrobe with these classic black skinny jeans, designed for a sleek and modern fit. Crafted from comfortable stretch denim, they offer effortless style and flexibility for everyday wear. Perfect for pairing with any top, these versatile jeans are a must-have staple for any fashion-forward collection.",
			Category:    "clothing",
			Brand:       "Johnson",
			Price:       150,
			ImageURL:    "data/images/black_jeans.jpg",
		},
		{
			ID:          5,
			Name:        "Nouvelle Revolution White Graphic Tee",
			Description: "Highlight your casual style with this chic white graphic tee, featuring a bold 'Nouvelle Revolution' print for a trendy, effortless look. Designed for a petite fit, this soft cotton shirt pairs perfectly with jeans or skirts for versatile everyday wear. Make a statement in comfort and style!",
			Category:    "clothing",
			Brand:       "Lewis",
			Price:       20,
			ImageURL:    "data/images/white_tshirt.jpg",
		},
		{
			ID:          6,
			Name:        "Classic Navy Blue T-Shirt",
			Description: "Light up your day with this classic navy blue t-shirt, featuring a subtle chest print for a modern edge. Made from soft, breathable fabric, it's perfect for everyday wear. Pair effortlessly with jeans or joggers for a clean, versatile look that never goes out of fashion.",
			Category:    "clothing",
			Brand:       "Johnson",
			Price:       150,
			ImageURL:    "data/images/black_tshirt.jpg",
		},
		{
			ID:          7,
			Name:        "Ultra-Slim 4K Smart LED TV",
			Description: "With its breathtaking clarity and vibrant colors, our ultra-slim 4K Smart LED TV will provide you with your favorite movies, shows, and games on a stunning widescreen display that brings every detail to life. With sleek modern design and easy connectivity, this television is perfect for any modern home entertainment setup.",
			Category:    "electronics",
			Brand:       "Lewis",
			Price:       500,
			ImageURL:    "data/images/night_tv.jpg",
		},
		{
			ID:          8,
			Name:        "Sleek Flat-Screen LED TV with Slim Bezels",
			Description: "Enjoy stunning visuals with this sleek flat-screen LED TV, designed to deliver vibrant colors and sharp details for all your favorite movies, shows, and games. Its slim bezels and modern stand make it a perfect fit for any room, blending seamlessly with your home décor while providing immersive entertainment.",
			Category:    "electronics",
			Brand:       "Johnson",
			Price:       1500,
			ImageURL:    "data/images/ocean_tv.jpg",
		},
	}
}
