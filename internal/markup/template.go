package markup

// DefaultTemplate is the starter document shown when a document cannot be
// loaded and used to seed new documents.
const DefaultTemplate = `\documentclass{article}
\usepackage{amsmath}
\usepackage{amssymb}

\title{Your Document Title}
\author{Your Name}
\date{\today}

\begin{document}

\maketitle

\section{Introduction}

Start writing your LaTeX document here. You can use inline math like $E = mc^2$ or display math with $$...$$:

$$
\int_{-\infty}^{\infty} e^{-x^2} dx = \sqrt{\pi}
$$

You can also use \[...\] for display math:

\[
\sum_{n=1}^{\infty} \frac{1}{n^2} = \frac{\pi^2}{6}
\]

\section{Examples}

\subsection{Equations}

The quadratic formula is:

$$
x = \frac{-b \pm \sqrt{b^2 - 4ac}}{2a}
$$

The Pythagorean theorem states that $a^2 + b^2 = c^2$ for right triangles.

\subsection{Matrices}

A matrix example:

$$
\begin{bmatrix}
1 & 2 & 3 \\
4 & 5 & 6 \\
7 & 8 & 9
\end{bmatrix}
$$

\subsection{More Examples}

Fractions: $\frac{a}{b}$ or in display mode:

$$
\frac{\partial f}{\partial x} = \lim_{h \to 0} \frac{f(x+h) - f(x)}{h}
$$

Summations and integrals:

$$
\int_0^1 x^2 \, dx = \frac{1}{3} \quad \text{and} \quad \sum_{k=1}^n k = \frac{n(n+1)}{2}
$$

\end{document}`
